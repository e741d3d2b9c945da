package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveMediaInput(t *testing.T) {
	file := &FileUpload{Name: "v.mp4", ContentType: "video/mp4", Data: []byte("bytes")}
	url := "https://cdn.campus.dev/v.mp4"

	tests := []struct {
		name    string
		removed bool
		file    *FileUpload
		url     string
		want    MediaUpdate
	}{
		{"removed wins over inputs", true, file, url, RemoveMedia()},
		{"file only", false, file, "", SetMediaFile(file)},
		{"url only", false, nil, url, SetMediaURL(url)},
		// 文件和 URL 同时给出时文件优先，URL 被丢弃
		{"file beats url", false, file, url, SetMediaFile(file)},
		{"neither keeps slot", false, nil, "", KeepMedia()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveMediaInput(tt.removed, tt.file, tt.url)
			assert.Equal(t, tt.want.Op, got.Op)
			assert.Equal(t, tt.want.File, got.File)
			assert.Equal(t, tt.want.URL, got.URL)
		})
	}
}
