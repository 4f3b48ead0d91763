package bot

import (
	"bytes"
	"encoding/json"

	"github.com/bwmarrin/discordgo"

	"warden-bot/internal/command"
)

// embedDocument is the accepted JSON shape for the embed command. Unknown
// fields are rejected so that typos surface as argument errors instead of
// silently dropped content.
type embedDocument struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
	Image       *embedMedia  `json:"image,omitempty"`
	Thumbnail   *embedMedia  `json:"thumbnail,omitempty"`
	Author      *embedAuthor `json:"author,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

type embedMedia struct {
	URL string `json:"url"`
}

type embedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

// embedFromJSON validates the document and builds the outgoing embed.
// Any parse or shape problem is an ArgumentError: it must be reported
// before a remote call is attempted.
func embedFromJSON(code string) (*discordgo.MessageEmbed, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(code)))
	dec.DisallowUnknownFields()

	var doc embedDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, &command.ArgumentError{Param: "json_code", Reason: err.Error()}
	}
	if doc.Title == "" && doc.Description == "" && len(doc.Fields) == 0 {
		return nil, &command.ArgumentError{Param: "json_code", Reason: "embed needs a title, description, or fields"}
	}

	embed := &discordgo.MessageEmbed{
		Title:       doc.Title,
		Description: doc.Description,
		URL:         doc.URL,
		Color:       doc.Color,
	}
	for _, f := range doc.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if doc.Footer != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: doc.Footer.Text, IconURL: doc.Footer.IconURL}
	}
	if doc.Image != nil {
		embed.Image = &discordgo.MessageEmbedImage{URL: doc.Image.URL}
	}
	if doc.Thumbnail != nil {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: doc.Thumbnail.URL}
	}
	if doc.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: doc.Author.Name, URL: doc.Author.URL, IconURL: doc.Author.IconURL}
	}
	return embed, nil
}
