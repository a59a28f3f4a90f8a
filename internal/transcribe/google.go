package transcribe

import (
	"context"
	"fmt"
	"io"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/storozh/moderator/internal/message"
)

// maxAudioBytes caps the downloaded payload. Platform voice notes are a
// few hundred KB per minute of Opus; anything past this is not a voice
// note worth moderating.
const maxAudioBytes = 20 << 20

// GoogleTranscriber implements Transcriber with Google Cloud
// Speech-to-Text. The recognition language is fixed at construction: the
// service moderates one community in one language, and letting the
// recognizer guess invites mistranscription.
type GoogleTranscriber struct {
	client   *speech.Client
	http     *retryablehttp.Client
	language string
}

// NewGoogleTranscriber creates the speech client (credentials come from
// the environment, standard Google SDK resolution).
func NewGoogleTranscriber(ctx context.Context, language string) (*GoogleTranscriber, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("transcribe: create speech client: %w", err)
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 2
	httpClient.Logger = nil // request noise goes through our own logs

	return &GoogleTranscriber{
		client:   client,
		http:     httpClient,
		language: language,
	}, nil
}

// Close releases the underlying speech client.
func (t *GoogleTranscriber) Close() error {
	return t.client.Close()
}

// Transcribe downloads the audio from the gateway's fetch URL and runs a
// synchronous recognition pass, returning the top alternative of the best
// result. The whole message waits on this: voice messages are fully
// transcribed before classification, never partially.
func (t *GoogleTranscriber) Transcribe(ctx context.Context, voice *message.Voice) (string, error) {
	if voice == nil || voice.FetchURL == "" {
		return "", fmt.Errorf("transcribe: no voice payload")
	}

	audio, err := t.download(ctx, voice.FetchURL)
	if err != nil {
		return "", err
	}

	encoding, sampleRate, err := encodingFor(voice.MimeType)
	if err != nil {
		return "", err
	}

	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        encoding,
			SampleRateHertz: sampleRate,
			LanguageCode:    t.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: recognize: %w", err)
	}

	var best string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 && result.Alternatives[0].Transcript != "" {
			if best != "" {
				best += " "
			}
			best += result.Alternatives[0].Transcript
		}
	}
	return best, nil
}

func (t *GoogleTranscriber) download(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("transcribe: build download request: %w", err)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcribe: download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("transcribe: download audio: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, fmt.Errorf("transcribe: read audio: %w", err)
	}
	if len(data) > maxAudioBytes {
		return nil, fmt.Errorf("transcribe: audio exceeds %d bytes", maxAudioBytes)
	}
	return data, nil
}

// encodingFor maps the payload mime type to the recognizer's encoding.
// Platform voice notes are OGG/Opus at 48kHz; a handful of other common
// containers are accepted for forwarded audio.
func encodingFor(mime string) (speechpb.RecognitionConfig_AudioEncoding, int32, error) {
	switch {
	case strings.Contains(mime, "ogg"), strings.Contains(mime, "opus"):
		return speechpb.RecognitionConfig_OGG_OPUS, 48000, nil
	case strings.Contains(mime, "wav"), strings.Contains(mime, "x-wav"):
		// Sample rate is read from the WAV header by the service.
		return speechpb.RecognitionConfig_LINEAR16, 0, nil
	case strings.Contains(mime, "flac"):
		return speechpb.RecognitionConfig_FLAC, 0, nil
	case strings.Contains(mime, "webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS, 48000, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, 0,
			fmt.Errorf("transcribe: unsupported audio mime type %q", mime)
	}
}
