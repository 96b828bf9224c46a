package models

import "strings"

// Image is an artwork resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// Artist is a provider artist. Popularity is only filled by top-artist listings.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres,omitempty"`
	Images     []Image  `json:"images,omitempty"`
	Popularity int      `json:"popularity,omitempty"`
}

// Album is a provider album.
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Track is a provider track descriptor.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	DurationMS int      `json:"duration_ms"`
	Album      Album    `json:"album"`
	URI        string   `json:"uri,omitempty"`
}

// ArtistNames joins all artist names with ", ".
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// PrimaryArtist returns the first artist's name or "Unknown Artist".
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 || t.Artists[0].Name == "" {
		return "Unknown Artist"
	}
	return t.Artists[0].Name
}

// ArtworkURL returns the first album image, if any.
func (t Track) ArtworkURL() string {
	if len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

// PlayableURI returns the track URI, deriving a spotify:track URI from the id when missing.
func (t Track) PlayableURI() string {
	if t.URI != "" {
		return t.URI
	}
	if t.ID == "" {
		return ""
	}
	return "spotify:track:" + t.ID
}

// NotPlayingTrack is the sentinel track shown when nothing is playing.
func NotPlayingTrack() Track {
	return Track{
		Name:    "Not Playing",
		Artists: []Artist{{Name: "Unknown Artist"}},
		Album:   Album{Name: "Unknown Album"},
	}
}

// IsNotPlaying reports whether t is the sentinel.
func (t Track) IsNotPlaying() bool {
	return t.ID == "" && t.URI == ""
}

// QueueRequest builds the add-to-queue body for t.
func (t Track) QueueRequest() AddToQueueRequest {
	return AddToQueueRequest{
		TrackID:   t.PlayableURI(),
		TrackName: t.Name,
		Artist:    t.PrimaryArtist(),
	}
}
