package confluence

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

// flexID accepts ids encoded as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type spaceDTO struct {
	ID   flexID `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

func (s spaceDTO) toDomain() domain.Space {
	return domain.Space{ID: string(s.ID), Key: s.Key, Name: s.Name}
}

type storageDTO struct {
	Value string `json:"value"`
}

type bodyDTO struct {
	Storage *storageDTO `json:"storage"`
}

func (b *bodyDTO) value() string {
	if b == nil || b.Storage == nil {
		return ""
	}
	return b.Storage.Value
}

type contentDTO struct {
	Body *bodyDTO `json:"body"`
}

type pageDTO struct {
	ID      flexID      `json:"id"`
	Title   string      `json:"title"`
	SpaceID flexID      `json:"spaceId"`
	Body    *bodyDTO    `json:"body"`
	Content *contentDTO `json:"content"`
}

// resolveBody picks the inline body first, then the nested content body.
func (p pageDTO) resolveBody() domain.PageBody {
	if v := p.Body.value(); strings.TrimSpace(v) != "" {
		return domain.PageBody{Kind: domain.BodyInline, Markup: v}
	}
	if p.Content != nil {
		if v := p.Content.Body.value(); strings.TrimSpace(v) != "" {
			return domain.PageBody{Kind: domain.BodyNested, Markup: v}
		}
	}
	return domain.PageBody{Kind: domain.BodyNone}
}

func (p pageDTO) toDomain() domain.Page {
	return domain.Page{
		ID:      string(p.ID),
		Title:   p.Title,
		SpaceID: string(p.SpaceID),
		Body:    p.resolveBody(),
	}
}

func pagesToDomain(dtos []pageDTO) []domain.Page {
	pages := make([]domain.Page, 0, len(dtos))
	for _, d := range dtos {
		pages = append(pages, d.toDomain())
	}
	return pages
}
