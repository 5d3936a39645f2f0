package zhipu

import (
	"net/http"
)

type Option func(*Client)

func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

var SupportedExtensions = []string{
	".png",
	".jpg",
	".jpeg",
	".bmp",
	".gif",
	".tif",
	".tiff",
	".webp",
}

var SupportedMimeTypes = []string{
	"image/png",
	"image/jpeg",
	"image/bmp",
	"image/gif",
	"image/tiff",
	"image/webp",
}
