// Package plex is a minimal Plex Media Server client used for show metadata
// lookup (genres, canonical title, thumbnail) and account verification.
package plex

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

type Client struct {
	serverURL string
	token     string
	http      *http.Client

	mu    sync.Mutex
	cache map[string]*Show // lowered title → show, populated on first listing
}

// Show is the subset of Plex show metadata the scanner cares about.
type Show struct {
	RatingKey string
	Title     string
	Year      *int
	Genres    []string
	ThumbURL  *string
	IsAnime   bool
}

// Account identifies a plex.tv account for the auth exchange.
type Account struct {
	ID       string
	Username string
	Email    *string
	ThumbURL *string
}

func NewClient(serverURL, token string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		token:     token,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

var animeGenres = map[string]bool{"anime": true, "animation": true, "アニメ": true}

// IsAnimeGenres reports whether a genre list indicates anime content.
func IsAnimeGenres(genres []string) bool {
	for _, g := range genres {
		if animeGenres[strings.ToLower(strings.TrimSpace(g))] {
			return true
		}
	}
	return false
}

// FindShow looks up a show by title across the server's show libraries.
// Returns nil (no error) when the server has no match.
func (c *Client) FindShow(title string) (*Show, error) {
	if c.serverURL == "" || c.token == "" {
		return nil, nil
	}

	c.mu.Lock()
	if c.cache == nil {
		c.mu.Unlock()
		if err := c.loadShows(); err != nil {
			return nil, err
		}
		c.mu.Lock()
	}
	show := c.cache[strings.ToLower(strings.TrimSpace(title))]
	c.mu.Unlock()
	return show, nil
}

// loadShows lists every show in every show-typed library section once and
// caches them by lowered title for the rest of the scan run.
func (c *Client) loadShows() error {
	sections, err := c.sections()
	if err != nil {
		return err
	}

	shows := make(map[string]*Show)
	for _, sec := range sections {
		if sec.Type != "show" {
			continue
		}
		items, err := c.sectionShows(sec.Key)
		if err != nil {
			return err
		}
		for _, s := range items {
			shows[strings.ToLower(s.Title)] = s
		}
	}

	c.mu.Lock()
	c.cache = shows
	c.mu.Unlock()
	return nil
}

type section struct {
	Key   string
	Type  string
	Title string
}

type mediaContainerResponse struct {
	MediaContainer struct {
		Directory []struct {
			Key   string `json:"key"`
			Type  string `json:"type"`
			Title string `json:"title"`
		} `json:"Directory"`
		Metadata []struct {
			RatingKey string `json:"ratingKey"`
			Title     string `json:"title"`
			Year      int    `json:"year"`
			Thumb     string `json:"thumb"`
			Genre     []struct {
				Tag string `json:"tag"`
			} `json:"Genre"`
		} `json:"Metadata"`
	} `json:"MediaContainer"`
}

func (c *Client) sections() ([]section, error) {
	var resp mediaContainerResponse
	if err := c.get("/library/sections", &resp); err != nil {
		return nil, err
	}
	var out []section
	for _, d := range resp.MediaContainer.Directory {
		out = append(out, section{Key: d.Key, Type: d.Type, Title: d.Title})
	}
	return out, nil
}

func (c *Client) sectionShows(key string) ([]*Show, error) {
	var resp mediaContainerResponse
	if err := c.get("/library/sections/"+url.PathEscape(key)+"/all", &resp); err != nil {
		return nil, err
	}

	var out []*Show
	for _, m := range resp.MediaContainer.Metadata {
		show := &Show{
			RatingKey: m.RatingKey,
			Title:     m.Title,
		}
		if m.Year > 0 {
			y := m.Year
			show.Year = &y
		}
		if m.Thumb != "" {
			thumb := c.serverURL + m.Thumb
			show.ThumbURL = &thumb
		}
		for _, g := range m.Genre {
			show.Genres = append(show.Genres, g.Tag)
		}
		show.IsAnime = IsAnimeGenres(show.Genres)
		out = append(out, show)
	}
	return out, nil
}

func (c *Client) get(path string, dst interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.serverURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("plex request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("plex request %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// VerifyAccount exchanges a plex.tv token for the account it belongs to.
func VerifyAccount(token string) (*Account, error) {
	req, err := http.NewRequest(http.MethodGet, "https://plex.tv/api/v2/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", token)
	req.Header.Set("X-Plex-Client-Identifier", "trackhound")
	req.Header.Set("X-Plex-Product", "TrackHound")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plex account lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("plex account lookup: status %d", resp.StatusCode)
	}

	var body struct {
		ID       json.Number `json:"id"`
		Username string      `json:"username"`
		Email    string      `json:"email"`
		Thumb    string      `json:"thumb"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	acct := &Account{ID: body.ID.String(), Username: body.Username}
	if body.Email != "" {
		acct.Email = &body.Email
	}
	if body.Thumb != "" {
		acct.ThumbURL = &body.Thumb
	}
	return acct, nil
}
