package mapper

import (
	"time"

	"github.com/crashteamdev/ke-data-scrapper/internal/domain"

	"github.com/google/uuid"
)

func NewProductEvent(change *domain.ProductChange) *domain.Event {
	return newEvent(&domain.Event{Product: change})
}

func NewPositionEvent(change *domain.PositionChange) *domain.Event {
	return newEvent(&domain.Event{Position: change})
}

func NewCategoryEvent(category domain.Category) *domain.Event {
	return newEvent(&domain.Event{Category: &domain.CategoryChange{Category: category}})
}

func newEvent(event *domain.Event) *domain.Event {
	event.EventID = uuid.NewString()
	event.ScrapTime = time.Now().UnixMilli()
	return event
}
