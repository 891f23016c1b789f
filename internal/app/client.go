package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketchat/internal/auth"
	"github.com/vovakirdan/marketchat/internal/config"
	"github.com/vovakirdan/marketchat/internal/core"
	"github.com/vovakirdan/marketchat/internal/favorites"
	"github.com/vovakirdan/marketchat/internal/imageenc"
	"github.com/vovakirdan/marketchat/internal/locale"
	"github.com/vovakirdan/marketchat/internal/transport/rest"
	"github.com/vovakirdan/marketchat/internal/transport/ws"
)

// ErrNoToken is returned when the client has no bearer token configured.
var ErrNoToken = errors.New("no token configured; set token in the config file or MARKETCHAT_TOKEN")

// Client is one signed-in member: REST client, favorites cache, messenger and push feed.
type Client struct {
	Self      core.Identity
	Phrases   locale.Phrases
	REST      *rest.Client
	Favorites *favorites.Cache
	Messenger *core.Messenger

	cfg config.Config
	log *zerolog.Logger
	wg  sync.WaitGroup
}

// NewClient builds a client from configuration. The token names the member.
func NewClient(cfg config.Config, logger *zerolog.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrNoToken
	}
	claims, err := auth.ParseIdentity(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	self := core.Identity{UserID: claims.UserID, Name: claims.Nickname, AvatarURL: claims.Avatar}
	phrases := locale.Lookup(cfg.Locale)

	restClient := rest.New(rest.Options{
		BaseURL: cfg.APIURL,
		Token:   cfg.Token,
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
	})

	messenger := core.NewMessenger(core.MessengerConfig{
		Service:   restClient,
		Images:    imageenc.New(cfg.MaxImageBytes),
		Self:      self,
		Phrases:   phrases,
		Logger:    logger,
		NoticeTTL: cfg.NoticeTTL,
	})

	return &Client{
		Self:      self,
		Phrases:   phrases,
		REST:      restClient,
		Favorites: favorites.New(restClient, logger),
		Messenger: messenger,
		cfg:       cfg,
		log:       logger,
	}, nil
}

// Start runs the messenger loop until ctx is done. With push set, the push feed
// is subscribed as well.
func (c *Client) Start(ctx context.Context, push bool) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Messenger.Run(ctx)
	}()

	if !push {
		return
	}
	sub := ws.NewSubscriber(ws.Options{URL: c.cfg.WSURL, Token: c.cfg.Token, Logger: c.log}, c.Messenger)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := sub.Run(ctx); err != nil {
			c.log.Error().Err(err).Msg("push feed stopped")
		}
	}()
}

// Wait blocks until everything started by Start has returned.
func (c *Client) Wait() {
	c.wg.Wait()
}
