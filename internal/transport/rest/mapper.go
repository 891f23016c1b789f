package rest

import (
	"github.com/vovakirdan/marketchat/internal/core"
	"github.com/vovakirdan/marketchat/internal/proto"
)

func sessionFromDTO(dto proto.SessionDTO) core.Session {
	s := core.Session{
		ID:            dto.ID,
		PartnerID:     dto.PartnerID,
		PartnerName:   dto.PartnerName,
		PartnerAvatar: dto.PartnerAvatar,
		LastPreview:   dto.LastMessage,
		LastTime:      dto.LastTime.Time,
		LastType:      core.MessageType(dto.LastMessageType),
		LastSenderID:  dto.LastSenderID,
		UnreadCount:   dto.UnreadCount,
	}
	if dto.ProductID != nil {
		s.Listing = &core.Listing{
			ID:        *dto.ProductID,
			Title:     dto.ProductTitle,
			Thumbnail: dto.ProductThumbnail,
		}
		if dto.ProductPrice != nil {
			price := dto.ProductPrice.String()
			s.Listing.Price = &price
		}
	}
	return s
}

// MessageFromDTO converts a wire message. sessionID fills in records that omit it.
func MessageFromDTO(dto proto.MessageDTO, sessionID int64) core.Message {
	msg := core.Message{
		ID:        dto.ID,
		SessionID: dto.SessionID,
		SenderID:  dto.SenderID,
		Type:      core.MessageType(dto.Type),
		Content:   dto.Content,
		CreatedAt: dto.CreatedAt.Time,
	}
	if msg.SessionID == 0 {
		msg.SessionID = sessionID
	}
	if msg.Type == "" {
		msg.Type = core.MessageTypeText
	}
	return msg
}
