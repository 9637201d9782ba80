package session

import "github.com/pavelanni/studybuddy/internal/model"

// Carousel is a flashcard deck with a cursor. Moving wraps around both ends
// and always lands on the question side.
type Carousel struct {
	Cards []model.FlashcardItem `json:"cards,omitempty"`
	Index int                   `json:"index"`
	Side  model.Side            `json:"side,omitempty"`
}

// Load replaces the deck and shows the first question.
func (c *Carousel) Load(cards []model.FlashcardItem) error {
	if len(cards) == 0 {
		return ErrInvalidTransition
	}
	*c = Carousel{Cards: cards, Side: model.SideQuestion}
	return nil
}

// Len returns the number of cards.
func (c *Carousel) Len() int { return len(c.Cards) }

// Current returns the card under the cursor.
func (c *Carousel) Current() (model.FlashcardItem, bool) {
	if c.Index < 0 || c.Index >= len(c.Cards) {
		return model.FlashcardItem{}, false
	}
	return c.Cards[c.Index], true
}

// Next moves to the following card, wrapping after the last, question side up.
func (c *Carousel) Next() error {
	if len(c.Cards) == 0 {
		return ErrInvalidTransition
	}
	c.Index = (c.Index + 1) % len(c.Cards)
	c.Side = model.SideQuestion
	return nil
}

// Prev moves to the preceding card, wrapping before the first, question side up.
func (c *Carousel) Prev() error {
	if len(c.Cards) == 0 {
		return ErrInvalidTransition
	}
	c.Index = (c.Index - 1 + len(c.Cards)) % len(c.Cards)
	c.Side = model.SideQuestion
	return nil
}

// Flip turns the current card over.
func (c *Carousel) Flip() error {
	if len(c.Cards) == 0 {
		return ErrInvalidTransition
	}
	if c.Side == model.SideAnswer {
		c.Side = model.SideQuestion
	} else {
		c.Side = model.SideAnswer
	}
	return nil
}

// Reset empties the deck.
func (c *Carousel) Reset() {
	*c = Carousel{}
}
