// Package imagegen produces the chart or diagram a Task 1 answer describes.
// Generation goes through Imagen; any failure is replaced by a fixed
// placeholder so a session never depends on it.
package imagegen

import (
	"encoding/base64"
	"fmt"
)

// PlaceholderURL is shown when no image could be generated.
const PlaceholderURL = "https://placehold.co/600x400/EBF4FF/1E40AF?text=Error+Generating+Image"

// Image is a generated prompt image or the placeholder that replaced it.
type Image struct {
	// Prompt is the task description the image was generated from.
	Prompt string
	// URL is set for placeholders.
	URL      string
	Data     []byte
	MIMEType string
	// Placeholder marks a substituted image.
	Placeholder bool
}

// Placeholder returns the substitute image for prompt.
func Placeholder(prompt string) Image {
	return Image{Prompt: prompt, URL: PlaceholderURL, MIMEType: "image/png", Placeholder: true}
}

// Source returns a URL usable as an <img> src: the remote URL, or the image
// bytes as a data URL.
func (i Image) Source() string {
	if len(i.Data) == 0 {
		return i.URL
	}
	mime := i.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Describe is a one-line summary for terminal display.
func (i Image) Describe() string {
	if i.Placeholder {
		return "Image unavailable. Task: " + i.Prompt
	}
	return fmt.Sprintf("Task: %s (%s, %d KB)", i.Prompt, i.MIMEType, (len(i.Data)+1023)/1024)
}
