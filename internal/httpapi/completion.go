package httpapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HugeFrog24/gpt-video-studio/internal/apperr"
	"github.com/HugeFrog24/gpt-video-studio/internal/completion"
)

// SSE event names used by /ai/complete.
const (
	EventToken = "token"
	EventError = "error"
	EventDone  = "done"
)

type TokenEvent struct {
	Text string `json:"text"`
}

type ErrorEvent struct {
	Error string `json:"error"`
}

type completionPayload struct {
	Template    *string  `json:"template" binding:"required"`
	VideoID     string   `json:"videoId" binding:"required,uuid"`
	Temperature *float64 `json:"temperature" binding:"omitempty,gte=0,lte=1"`
}

func (api *API) generateCompletion(c *gin.Context) {
	var payload completionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.handleError(c, bindingError(err))
		return
	}

	stream, err := api.completer.Stream(c.Request.Context(), completion.Request{
		Template:    *payload.Template,
		VideoID:     payload.VideoID,
		Temperature: payload.Temperature,
	})
	if err != nil {
		api.handleError(c, err)
		return
	}
	defer stream.Close()

	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		api.streamEvents(c, stream)
		return
	}
	api.streamText(c, stream)
}

// streamEvents writes one SSE event per fragment and ends with either a
// done or an error event.
func (api *API) streamEvents(c *gin.Context, stream *completion.Stream) {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			c.SSEvent(EventDone, struct{}{})
			c.Writer.Flush()
			return
		}
		if err != nil {
			api.log.Error().Err(err).Msg("completion stream ended abnormally")
			c.SSEvent(EventError, ErrorEvent{Error: apperr.Message(err)})
			c.Writer.Flush()
			return
		}
		c.SSEvent(EventToken, TokenEvent{Text: fragment})
		c.Writer.Flush()
	}
}

// streamText writes raw text fragments. A failure after the first byte
// aborts the connection so the client never sees a clean end of body.
func (api *API) streamText(c *gin.Context, stream *completion.Stream) {
	c.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			if !c.Writer.Written() {
				c.Writer.Header().Del("Content-Type")
				api.handleError(c, err)
				return
			}
			api.log.Error().Err(err).Msg("completion stream ended abnormally")
			panic(http.ErrAbortHandler)
		}
		if _, err := c.Writer.WriteString(fragment); err != nil {
			return
		}
		c.Writer.Flush()
	}
}
