package parse

import "testing"

func TestValidImageURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example.com/photo.jpg", true},
		{"http://img.example.com/a", true},
		{"//cdn.example.com/photo.jpg", false},
		{"/relative/photo.jpg", false},
		{"http://a", false},
		{"https://example.com/pixel.gif", false},
		{"https://example.com/1x1.png", false},
		{"https://example.com/favicon.ico", false},
		{"https://track.example.com/tracking/open.gif", false},
		{"https://example.com/icons/16x16/up.png", false},
	}
	for _, tt := range tests {
		if got := ValidImageURL(tt.url); got != tt.want {
			t.Errorf("ValidImageURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestHasImageExtension(t *testing.T) {
	for _, u := range []string{"https://x.com/a.JPG", "https://x.com/a.webp?w=600", "https://x.com/a.jpeg#top"} {
		if !HasImageExtension(u) {
			t.Errorf("%q should have an image extension", u)
		}
	}
	for _, u := range []string{"https://x.com/a.mp4", "https://x.com/jpg", "https://x.com/a?f=a.png"} {
		if HasImageExtension(u) {
			t.Errorf("%q should not have an image extension", u)
		}
	}
}

func TestExtractImageCascade(t *testing.T) {
	tests := []struct {
		name  string
		block string
		desc  string
		want  string
	}{
		{
			"media content beats thumbnail",
			`<media:thumbnail url="https://c.com/thumb.jpg"/><media:content url="https://c.com/full.jpg"/>`,
			"", "https://c.com/full.jpg",
		},
		{
			"video media content skipped",
			`<media:content url="https://c.com/clip.mp4" type="video/mp4"/><media:thumbnail url="https://c.com/thumb.jpg"/>`,
			"", "https://c.com/thumb.jpg",
		},
		{
			"grouped media content",
			`<media:group><media:content url="https://c.com/grouped.jpg" medium="image"/></media:group>`,
			"", "https://c.com/grouped.jpg",
		},
		{
			"enclosure by type",
			`<enclosure url="https://c.com/photo?id=3" type="image/jpeg" length="1"/>`,
			"", "https://c.com/photo?id=3",
		},
		{
			"enclosure by extension",
			`<enclosure url="https://c.com/audio.mp3" type="audio/mpeg"/><enclosure url="https://c.com/cover.png"/>`,
			"", "https://c.com/cover.png",
		},
		{
			"inline img in description",
			``,
			`&lt;img src="https://c.com/inline.jpg"&gt;`, "https://c.com/inline.jpg",
		},
		{
			"image url element",
			`<image><url>https://c.com/item.png</url></image>`,
			"", "https://c.com/item.png",
		},
		{
			"bare url",
			`<guid>id</guid><foo>see https://c.com/bare.webp for more</foo>`,
			"", "https://c.com/bare.webp",
		},
		{
			"tracking pixel rejected then next candidate",
			`<media:content url="https://c.com/pixel.gif"/><media:thumbnail url="https://c.com/real.jpg"/>`,
			"", "https://c.com/real.jpg",
		},
		{
			"nothing",
			`<title>no image</title>`,
			"", "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractImage(tt.block, tt.desc); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
