package transcribe

import (
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
)

func TestEncodingFor(t *testing.T) {
	tests := []struct {
		mime     string
		encoding speechpb.RecognitionConfig_AudioEncoding
		rate     int32
		wantErr  bool
	}{
		{"audio/ogg", speechpb.RecognitionConfig_OGG_OPUS, 48000, false},
		{"audio/ogg; codecs=opus", speechpb.RecognitionConfig_OGG_OPUS, 48000, false},
		{"audio/opus", speechpb.RecognitionConfig_OGG_OPUS, 48000, false},
		{"audio/wav", speechpb.RecognitionConfig_LINEAR16, 0, false},
		{"audio/x-wav", speechpb.RecognitionConfig_LINEAR16, 0, false},
		{"audio/flac", speechpb.RecognitionConfig_FLAC, 0, false},
		{"audio/webm", speechpb.RecognitionConfig_WEBM_OPUS, 48000, false},
		{"audio/mpeg", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			enc, rate, err := encodingFor(tt.mime)
			if (err != nil) != tt.wantErr {
				t.Fatalf("encodingFor(%q) error = %v, wantErr %v", tt.mime, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if enc != tt.encoding || rate != tt.rate {
				t.Errorf("encodingFor(%q) = (%v, %d), want (%v, %d)", tt.mime, enc, rate, tt.encoding, tt.rate)
			}
		})
	}
}
