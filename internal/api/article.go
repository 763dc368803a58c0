package api

// Article is a submitted URL together with its extracted text and the
// synthesized audio. AudioURL is empty until synthesis has completed.
type Article struct {
	ID          string `json:"id"           yaml:"id"`
	Title       string `json:"title"        yaml:"title"`
	Content     string `json:"content"      yaml:"content"`
	ContentURL  string `json:"content_url"  yaml:"content_url"`
	AudioURL    string `json:"audio_url"    yaml:"audio_url"`
	SpeechModel string `json:"speech_model" yaml:"speech_model"`
}

// HasAudio reports whether the article has synthesized audio to play.
func (a Article) HasAudio() bool {
	return a.AudioURL != ""
}

// Ack is the acknowledgement object returned by a delete.
type Ack map[string]any

// Find returns the article with the given id.
func Find(articles []Article, id string) (Article, bool) {
	for _, a := range articles {
		if a.ID == id {
			return a, true
		}
	}
	return Article{}, false
}

type submitRequest struct {
	URL               string `json:"url"`
	TextToSpeechModel string `json:"textToSpeechModel"`
}

type voiceSampleRequest struct {
	Voice string `json:"voice"`
	Text  string `json:"text"`
}
