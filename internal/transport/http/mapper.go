package http

import (
	"encoding/json"

	"github.com/vovakirdan/marketchat/internal/proto"
	"github.com/vovakirdan/marketchat/internal/service/chat"
	"github.com/vovakirdan/marketchat/internal/store"
)

const (
	systemPartnerName   = "System"
	systemPartnerAvatar = "https://api.dicebear.com/7.x/bottts/svg?seed=system-notice"
)

func sessionToDTO(v chat.SessionView, viewerID int64) proto.SessionDTO {
	sess := v.Session
	dto := proto.SessionDTO{
		ID:              sess.ID,
		PartnerID:       v.PartnerID(viewerID),
		LastMessage:     sess.LastMessage,
		LastMessageType: sess.LastType,
		LastSenderID:    sess.LastSenderID,
		LastTime:        proto.NewTime(sess.LastTime),
		UnreadCount:     v.Unread,
	}

	switch {
	case dto.PartnerID == store.SystemUserID:
		dto.PartnerName = systemPartnerName
		dto.PartnerAvatar = systemPartnerAvatar
	case v.Partner != nil:
		dto.PartnerName = v.Partner.Nickname
		dto.PartnerAvatar = v.Partner.AvatarURL
	}

	if p := v.Product; p != nil {
		dto.ProductID = &p.ID
		dto.ProductTitle = p.Title
		dto.ProductThumbnail = p.Thumbnail
		dto.ProductPrice = priceNumber(p.Price)
	}
	return dto
}

func sessionsToDTO(views []chat.SessionView, viewerID int64) []proto.SessionDTO {
	out := make([]proto.SessionDTO, 0, len(views))
	for _, v := range views {
		out = append(out, sessionToDTO(v, viewerID))
	}
	return out
}

func messageToDTO(m *store.ChatMessage) proto.MessageDTO {
	return proto.MessageDTO{
		ID:        m.ID,
		SessionID: m.SessionID,
		SenderID:  m.SenderID,
		Type:      m.Type,
		Content:   m.Content,
		Read:      m.Read,
		CreatedAt: proto.NewTime(m.CreatedAt),
	}
}

func messagesToDTO(msgs []*store.ChatMessage) []proto.MessageDTO {
	out := make([]proto.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageToDTO(m))
	}
	return out
}

func productToDTO(p *store.Product) proto.ProductDTO {
	return proto.ProductDTO{
		ID:        p.ID,
		SellerID:  p.SellerID,
		Title:     p.Title,
		Thumbnail: p.Thumbnail,
		Price:     priceNumber(p.Price),
	}
}

func priceNumber(price *string) *json.Number {
	if price == nil {
		return nil
	}
	n := json.Number(*price)
	return &n
}
