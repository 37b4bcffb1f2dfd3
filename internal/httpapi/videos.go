package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HugeFrog24/gpt-video-studio/internal/apperr"
)

func (api *API) uploadVideo(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, api.maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.handleError(c, apperr.Validation(fmt.Sprintf("File too large, the limit is %d bytes.", api.maxUploadBytes)))
			return
		}
		api.handleError(c, apperr.Validation("Missing file input."))
		return
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".mp3" {
		api.handleError(c, apperr.Validation("Invalid input type, please upload a MP3."))
		return
	}

	ctx := c.Request.Context()
	path, err := api.uploads.Save(ctx, header.Filename, file)
	if err != nil {
		api.handleError(c, err)
		return
	}

	video, err := api.videos.Create(ctx, header.Filename, path)
	if err != nil {
		api.handleError(c, err)
		return
	}

	api.log.Info().Str("video_id", video.ID).Str("name", video.Name).Int64("bytes", header.Size).Msg("video uploaded")
	c.JSON(http.StatusOK, gin.H{"video": video})
}

type videoURI struct {
	VideoID string `uri:"videoId" binding:"required,uuid"`
}

type transcriptionPayload struct {
	Prompt *string `json:"prompt" binding:"required"`
}

func (api *API) createTranscription(c *gin.Context) {
	var uri videoURI
	if err := c.ShouldBindUri(&uri); err != nil {
		api.handleError(c, bindingError(err))
		return
	}
	var payload transcriptionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.handleError(c, bindingError(err))
		return
	}

	transcription, err := api.transcriber.Transcribe(c.Request.Context(), uri.VideoID, *payload.Prompt)
	if err != nil {
		api.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcription": transcription})
}
