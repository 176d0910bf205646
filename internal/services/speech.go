package services

import (
  "context"
  "fmt"
  "net/http"
  "path/filepath"
  "strings"
  "time"
  speech "cloud.google.com/go/speech/apiv1"
  speechpb "cloud.google.com/go/speech/apiv1/speechpb"
  "google.golang.org/api/option"
  "google.golang.org/grpc/codes"
  "google.golang.org/grpc/status"
  "github.com/amplifylms/amplify-backend/internal/apierr"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/utils"
)

// Transcript is what the grading UI consumes: the full text plus optional
// per-result confidence.
type Transcript struct {
  Text       string   `json:"text"`
  Confidence *float64 `json:"confidence,omitempty"`
}

type SpeechService interface {
  Transcribe(ctx context.Context, audio []byte, mimeType string) (*Transcript, error)
  Close() error
}

type speechService struct {
  log        *logger.Logger
  client     *speech.Client
  maxRetries int
}

func NewSpeechService(log *logger.Logger) (SpeechService, error) {
  if log == nil {
    return nil, fmt.Errorf("logger required")
  }
  serviceLog := log.With("service", "SpeechService")

  creds := strings.TrimSpace(utils.GetEnv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "", serviceLog))
  if creds == "" {
    creds = strings.TrimSpace(utils.GetEnv("GOOGLE_APPLICATION_CREDENTIALS", "", serviceLog))
  }

  ctx := context.Background()
  var client *speech.Client
  var err error
  if creds != "" {
    client, err = speech.NewClient(ctx, option.WithCredentialsFile(creds))
  } else {
    client, err = speech.NewClient(ctx)
  }
  if err != nil {
    return nil, fmt.Errorf("speech client: %w", err)
  }

  return &speechService{
    log:        serviceLog,
    client:     client,
    maxRetries: 4,
  }, nil
}

func (s *speechService) Close() error {
  if s == nil || s.client == nil {
    return nil
  }
  return s.client.Close()
}

func (s *speechService) Transcribe(ctx context.Context, audio []byte, mimeType string) (*Transcript, error) {
  // Answer recordings are short clips; keep a strict timeout.
  ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
  defer cancel()

  if len(audio) == 0 {
    return &Transcript{Text: ""}, nil
  }

  req := &speechpb.LongRunningRecognizeRequest{
    Config: &speechpb.RecognitionConfig{
      LanguageCode:               "en-US",
      EnableAutomaticPunctuation: true,
      Encoding:                   inferSpeechEncoding(mimeType),
    },
    Audio: &speechpb.RecognitionAudio{
      AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
    },
  }

  resp, err := s.retryLR(ctx, func() (*speechpb.LongRunningRecognizeResponse, error) {
    op, err := s.client.LongRunningRecognize(ctx, req)
    if err != nil {
      return nil, err
    }
    return op.Wait(ctx)
  })
  if err != nil {
    s.log.Error("Transcription failed", "mime_type", mimeType, "error", err)
    return nil, apierr.New(http.StatusBadGateway, "transcription_failed",
      fmt.Errorf("Unable to transcribe audio recording"))
  }

  return parseTranscript(resp), nil
}

func inferSpeechEncoding(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
  m := strings.ToLower(strings.TrimSpace(mimeType))
  ext := strings.ToLower(filepath.Ext(m))

  switch {
  case strings.Contains(m, "wav") || ext == ".wav":
    return speechpb.RecognitionConfig_LINEAR16
  case strings.Contains(m, "flac") || ext == ".flac":
    return speechpb.RecognitionConfig_FLAC
  case strings.Contains(m, "mp3") || strings.Contains(m, "mpeg") || ext == ".mp3":
    return speechpb.RecognitionConfig_MP3
  case strings.Contains(m, "ogg") || strings.Contains(m, "opus") || strings.Contains(m, "webm"):
    return speechpb.RecognitionConfig_WEBM_OPUS
  default:
    // leave unspecified; the API can usually auto-detect
    return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
  }
}

func parseTranscript(resp *speechpb.LongRunningRecognizeResponse) *Transcript {
  out := &Transcript{}
  if resp == nil || len(resp.Results) == 0 {
    return out
  }

  var full strings.Builder
  var confSum float64
  var confN int

  for _, r := range resp.Results {
    if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
      continue
    }
    alt := r.Alternatives[0]
    if strings.TrimSpace(alt.Transcript) == "" {
      continue
    }
    if full.Len() > 0 {
      full.WriteString(" ")
    }
    full.WriteString(strings.TrimSpace(alt.Transcript))
    if alt.Confidence > 0 {
      confSum += float64(alt.Confidence)
      confN++
    }
  }

  out.Text = strings.TrimSpace(full.String())
  if confN > 0 {
    avg := confSum / float64(confN)
    out.Confidence = &avg
  }
  return out
}

func (s *speechService) retryLR(ctx context.Context, fn func() (*speechpb.LongRunningRecognizeResponse, error)) (*speechpb.LongRunningRecognizeResponse, error) {
  backoff := 750 * time.Millisecond
  var last error
  for attempt := 0; attempt <= s.maxRetries; attempt++ {
    if ctx.Err() != nil {
      return nil, ctx.Err()
    }
    resp, err := fn()
    if err == nil {
      return resp, nil
    }
    last = err

    code := status.Code(err)
    if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
      return nil, err
    }
    if attempt == s.maxRetries {
      break
    }
    time.Sleep(backoff)
    backoff *= 2
    if backoff > 10*time.Second {
      backoff = 10 * time.Second
    }
  }
  return nil, last
}
