package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

type generateRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.5-flash"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8082"
	}
	// An empty KEY accepts any non-empty key.
	wantKey := os.Getenv("KEY")

	keyOK := func(r *http.Request) bool {
		k := r.URL.Query().Get("key")
		if wantKey != "" {
			return k == wantKey
		}
		return k != ""
	}
	reject := func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": "API key not valid. Please pass a valid API key.", "status": "INVALID_ARGUMENT"},
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !keyOK(r) {
			reject(w)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{{"name": "models/" + model}},
		})
	})
	mux.HandleFunc("/v1beta/models/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		if !keyOK(r) {
			reject(w)
			return
		}
		defer r.Body.Close()
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		prompt := ""
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			prompt = req.Contents[0].Parts[0].Text
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": reply(prompt)}}},
			}},
		})
	})

	log.Printf("gemini-stub listening on %s (model=%s)", addr, model)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

// reply echoes the first words of the text after the prompt's blank line
// as a bullet list so output is deterministic.
func reply(prompt string) string {
	text := prompt
	if i := strings.Index(prompt, "\n\n"); i >= 0 {
		text = prompt[i+2:]
	}
	words := strings.Fields(text)
	var b strings.Builder
	for i := 0; i < len(words) && i < 24; i += 8 {
		end := i + 8
		if end > len(words) {
			end = len(words)
		}
		b.WriteString("- " + strings.Join(words[i:end], " ") + "\n")
	}
	if b.Len() == 0 {
		return "- (empty input)"
	}
	return strings.TrimSpace(b.String())
}
