package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

// ListMangas returns one page of a catalogue section
func (c *Client) ListMangas(ctx context.Context, filter domain.MangaFilter) ([]domain.Manga, error) {
	query := url.Values{}
	query.Set("IsNew", strconv.FormatBool(filter.Section == domain.SectionNew))
	query.Set("IsUpdated", strconv.FormatBool(filter.Section == domain.SectionUpdated))
	query.Set("IsPopular", strconv.FormatBool(filter.Section == domain.SectionPopular))
	if filter.Page > 0 {
		query.Set("CurrentPage", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		query.Set("PageSize", strconv.Itoa(filter.PageSize))
	}

	body, err := c.do(ctx, request{method: http.MethodGet, path: "/api/app/mangas", query: query})
	if err != nil {
		return nil, err
	}

	dtos, err := decodeValue[[]mangaDTO](body)
	if err != nil {
		return nil, err
	}
	return mapMangas(dtos)
}

// GetMangaDetails returns a manga with its chapters and translator teams
func (c *Client) GetMangaDetails(ctx context.Context, mangaID int) (*domain.MangaDetails, error) {
	path := fmt.Sprintf("/api/app/mangas/%d", mangaID)
	body, err := c.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}

	dto, err := decodeValue[mangaDetailsDTO](body)
	if err != nil {
		return nil, err
	}
	return mapMangaDetails(dto, mangaID)
}

// GetChapterPages returns the pages of a chapter in reading order
func (c *Client) GetChapterPages(ctx context.Context, chapterID int) ([]domain.Page, error) {
	path := fmt.Sprintf("/api/app/chapters/%d/pages", chapterID)
	body, err := c.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}

	dto, err := decodeValue[pagesDTO](body)
	if err != nil {
		return nil, err
	}
	pages, err := mapPages(dto, chapterID)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		pages[i].ImageURL = c.ResolveURL(pages[i].ImageURL)
	}
	return pages, nil
}

// RateManga submits a rating for the manga
func (c *Client) RateManga(ctx context.Context, mangaID, userID, value int) error {
	payload, err := json.Marshal(map[string]int{"userId": userID, "value": value})
	if err != nil {
		return err
	}
	body, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        fmt.Sprintf("/api/app/mangas/%d", mangaID),
		body:        payload,
		contentType: contentJSON,
	})
	if err != nil {
		return err
	}
	return decodeAck(body)
}

var _ domain.MangaRepository = (*Client)(nil)
