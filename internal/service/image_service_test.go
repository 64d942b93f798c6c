package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	config "github.com/arjunmk/postpilot/configs"
	"github.com/arjunmk/postpilot/internal/models"
	"github.com/arjunmk/postpilot/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal valid PNG header so filetype sniffing recognizes the payload.
var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

func newImageServiceFixture(t *testing.T, cfg config.Config, provider http.Handler) (*imageService, *fakeImageGenerationRepository, *fakeUploader) {
	t.Helper()
	ir := newFakeImageGenerationRepository()
	uploader := &fakeUploader{}
	s := &imageService{
		cfg:     cfg,
		ir:      ir,
		storage: uploader,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	if provider != nil {
		srv := httptest.NewServer(provider)
		t.Cleanup(srv.Close)
		s.pollinationsURL = srv.URL
		s.huggingFaceURL = srv.URL
		s.openAIURL = srv.URL
	}
	return s, ir, uploader
}

func TestOptimizePromptAddsPlatformStyle(t *testing.T) {
	optimized := OptimizePrompt("a mountain lake", models.PlatformInstagram, "post")

	assert.True(t, strings.HasPrefix(optimized, "a mountain lake"))
	assert.Contains(t, optimized, "Instagram-worthy")
	assert.Contains(t, optimized, "professional photography")
	assert.Contains(t, optimized, "high resolution")
}

func TestOptimizePromptRealEstateKeywords(t *testing.T) {
	for _, prompt := range []string{
		"modern house exterior",
		"cozy HOME interior",
		"new property listing photo",
	} {
		optimized := OptimizePrompt(prompt, models.PlatformFacebook, "post")
		assert.Contains(t, optimized, "real estate photography", "prompt %q", prompt)
	}

	plain := OptimizePrompt("a mountain lake", models.PlatformFacebook, "post")
	assert.NotContains(t, plain, "real estate photography")
}

func TestOptimizePromptUnknownPlatformStillEnhanced(t *testing.T) {
	optimized := OptimizePrompt("city skyline", "tiktok", "post")

	assert.True(t, strings.HasPrefix(optimized, "city skyline"))
	assert.Contains(t, optimized, "sharp focus")
}

func TestPlatformDimensions(t *testing.T) {
	tests := []struct {
		platform    string
		contentType string
		width       int
		height      int
	}{
		{models.PlatformInstagram, "post", 1080, 1080},
		{models.PlatformInstagram, "story", 1080, 1920},
		{models.PlatformFacebook, "post", 1200, 1200},
		{models.PlatformFacebook, "cover", 1200, 630},
		{"unknown", "post", 1024, 1024},
	}

	for _, tt := range tests {
		width, height := platformDimensions(tt.platform, tt.contentType)
		assert.Equal(t, tt.width, width, "%s/%s width", tt.platform, tt.contentType)
		assert.Equal(t, tt.height, height, "%s/%s height", tt.platform, tt.contentType)
	}
}

func TestSelectProvider(t *testing.T) {
	withKey, _, _ := newImageServiceFixture(t, config.Config{HuggingFaceAPIKey: "hf_key"}, nil)
	assert.Equal(t, ProviderHuggingFace, withKey.selectProvider())

	withoutKey, _, _ := newImageServiceFixture(t, config.Config{}, nil)
	assert.Equal(t, ProviderPollinations, withoutKey.selectProvider())
}

func TestGenerateRequiresPrompt(t *testing.T) {
	s, _, _ := newImageServiceFixture(t, config.Config{}, nil)

	_, _, err := s.GenerateSocialMediaImage(context.Background(), &transfer.GenerationRequest{})
	require.Error(t, err)

	_, _, err = s.GenerateSocialMediaImage(context.Background(), nil)
	require.Error(t, err)
}

func TestGenerateWithPollinationsCompletes(t *testing.T) {
	var gotQuery string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write(pngBytes)
	})

	s, ir, uploader := newImageServiceFixture(t, config.Config{}, handler)

	gen, result, err := s.GenerateSocialMediaImage(context.Background(), &transfer.GenerationRequest{
		Prompt:   "modern kitchen",
		Platform: models.PlatformInstagram,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Success)
	assert.Equal(t, ProviderPollinations, result.Provider)
	assert.Contains(t, gotQuery, "width=1080")
	assert.Contains(t, gotQuery, "height=1080")

	assert.Equal(t, models.GenerationStatusCompleted, gen.Status)
	assert.NotEmpty(t, gen.ImageURL)
	assert.Equal(t, gen.ImageURL, result.ImageURL)

	require.Len(t, uploader.keys, 1)
	assert.True(t, strings.HasSuffix(uploader.keys[0], ".png"))

	stored, err := ir.GetByID(context.Background(), gen.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusCompleted, stored.Status)
}

func TestGeneratePromptOptimizedBeforeRequest(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes)
	})

	s, _, _ := newImageServiceFixture(t, config.Config{}, handler)

	_, result, err := s.GenerateSocialMediaImage(context.Background(), &transfer.GenerationRequest{
		Prompt:   "beach house at dawn",
		Platform: models.PlatformFacebook,
	})
	require.NoError(t, err)

	assert.Equal(t, "beach house at dawn", result.OriginalPrompt)
	assert.Contains(t, result.OptimizedPrompt, "real estate photography")
	assert.NotEqual(t, result.OriginalPrompt, result.OptimizedPrompt)
}

func TestGenerateProviderFailureMarksFailed(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("model overloaded"))
	})

	s, ir, _ := newImageServiceFixture(t, config.Config{}, handler)

	gen, result, err := s.GenerateSocialMediaImage(context.Background(), &transfer.GenerationRequest{
		Prompt:   "anything",
		Provider: ProviderPollinations,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "503")
	assert.Equal(t, models.GenerationStatusFailed, gen.Status)

	stored, err := ir.GetByID(context.Background(), gen.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusFailed, stored.Status)
	assert.NotEmpty(t, stored.ErrorMessage)
}

func TestGenerateHuggingFaceFallsBackToPollinations(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The HuggingFace attempt POSTs; the Pollinations fallback GETs.
		if r.Method == "POST" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(pngBytes)
	})

	s, _, _ := newImageServiceFixture(t, config.Config{HuggingFaceAPIKey: "hf_key"}, handler)

	gen, result, err := s.GenerateSocialMediaImage(context.Background(), &transfer.GenerationRequest{
		Prompt: "sunset over the bay",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, ProviderPollinations, result.Provider)
	assert.Equal(t, models.GenerationStatusCompleted, gen.Status)
}

func TestGenerateUploadFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes)
	})

	s, _, uploader := newImageServiceFixture(t, config.Config{}, handler)
	uploader.err = assert.AnError

	gen, result, err := s.GenerateSocialMediaImage(context.Background(), &transfer.GenerationRequest{
		Prompt:   "anything",
		Provider: ProviderPollinations,
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, models.GenerationStatusFailed, gen.Status)
}
