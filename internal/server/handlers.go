package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/teja-palleti/Yesu-Mitra/internal/artifact"
	"github.com/teja-palleti/Yesu-Mitra/internal/chat"
	"github.com/teja-palleti/Yesu-Mitra/internal/observe"
	"github.com/teja-palleti/Yesu-Mitra/internal/scripture"
)

// chatRequest is the body of POST /chat.
type chatRequest struct {
	Query string `json:"query"`
}

// chatResponse is the body of a successful POST /chat.
type chatResponse struct {
	Response string      `json:"response"`
	AudioURL *string     `json:"audio_url"`
	Verses   []verseJSON `json:"verses"`
}

// verseJSON is one retrieved verse.
type verseJSON struct {
	Reference string `json:"reference"`
	Book      string `json:"book"`
	Chapter   string `json:"chapter"`
	Verse     string `json:"verse"`
	Text      string `json:"text"`
	Annotated string `json:"annotated"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toVerseJSON(verses []scripture.RetrievedVerse) []verseJSON {
	out := make([]verseJSON, len(verses))
	for i, v := range verses {
		out[i] = verseJSON{
			Reference: v.Reference.String(),
			Book:      v.CorpusBook,
			Chapter:   v.Reference.Chapter,
			Verse:     v.Reference.Verse,
			Text:      v.Text,
			Annotated: v.Annotated(),
		}
	}
	return out
}

// AudioURL is the path an artifact is served under.
func AudioURL(a *artifact.Artifact) string {
	return "/tts/" + a.FileName()
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	resp, err := s.asker.Ask(r.Context(), req.Query)
	if errors.Is(err, chat.ErrEmptyQuery) {
		respondError(w, http.StatusBadRequest, "No query provided")
		return
	}
	if err != nil {
		observe.Logger(r.Context()).Error("chat request failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	out := chatResponse{
		Response: resp.Answer,
		Verses:   toVerseJSON(resp.Verses),
	}
	if resp.Audio != nil {
		u := AudioURL(resp.Audio)
		out.AudioURL = &u
	}
	respond(w, http.StatusOK, out)
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	id, ok := artifact.IDFromFileName(r.PathValue("file"))
	if !ok || s.audio == nil {
		respondError(w, http.StatusNotFound, "Audio file not found")
		return
	}
	rd, err := s.audio.Open(id)
	if errors.Is(err, artifact.ErrNotFound) || errors.Is(err, artifact.ErrClosed) {
		respondError(w, http.StatusNotFound, "Audio file not found")
		return
	}
	if err != nil {
		observe.Logger(r.Context()).Error("open audio artifact", "id", id, "err", err)
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	defer rd.Close()

	art := rd.Artifact()
	h := w.Header()
	h.Set("Content-Type", "audio/mpeg")
	h.Set("Cache-Control", "private, max-age=600")
	if art.Digest != "" {
		h.Set("ETag", strconv.Quote(art.Digest))
	}
	http.ServeContent(w, r, art.FileName(), art.CreatedAt, rd)
}

// respond writes data as a JSON body with the given status.
func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, errorResponse{Error: message})
}
