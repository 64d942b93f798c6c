package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/arjunmk/postpilot/configs"
	"github.com/arjunmk/postpilot/internal/models"
	"github.com/arjunmk/postpilot/internal/repository"
	"github.com/arjunmk/postpilot/internal/transfer"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	HUGGINGFACE_API_URL  = "https://api-inference.huggingface.co/models"
	POLLINATIONS_API_URL = "https://image.pollinations.ai/prompt"
	OPENAI_IMAGES_URL    = "https://api.openai.com/v1/images/generations"

	ProviderAuto         = "auto"
	ProviderHuggingFace  = "huggingface"
	ProviderPollinations = "pollinations"
	ProviderOpenAI       = "openai"

	defaultModel          = "stable-diffusion-v1-5"
	defaultNegativePrompt = "blurry, low quality, distorted, deformed, ugly, bad anatomy"
)

// Model aliases accepted from clients, mapped to HuggingFace model IDs.
var huggingFaceModels = map[string]string{
	"stable-diffusion-v1-5": "runwayml/stable-diffusion-v1-5",
	"stable-diffusion-xl":   "stabilityai/stable-diffusion-xl-base-1.0",
	"stable-diffusion-2-1":  "stabilityai/stable-diffusion-2-1",
}

type generationParams struct {
	Width          int
	Height         int
	InferenceSteps int
	GuidanceScale  float64
	NegativePrompt string
}

func defaultParams() generationParams {
	return generationParams{
		Width:          1024,
		Height:         1024,
		InferenceSteps: 20,
		GuidanceScale:  7.5,
		NegativePrompt: defaultNegativePrompt,
	}
}

type ImageService interface {
	GenerateSocialMediaImage(ctx context.Context, req *transfer.GenerationRequest) (*models.ImageGeneration, *transfer.GenerationResult, error)
}

// Uploader is the slice of StorageService the image pipeline needs.
type Uploader interface {
	Upload(ctx context.Context, key string, file []byte, filetype string) (string, error)
}

type imageService struct {
	cfg             config.Config
	ir              repository.ImageGenerationRepository
	storage         Uploader
	client          *http.Client
	huggingFaceURL  string
	pollinationsURL string
	openAIURL       string
}

func NewImageService(cfg config.Config, ir repository.ImageGenerationRepository, storage Uploader) ImageService {
	return &imageService{
		cfg:             cfg,
		ir:              ir,
		storage:         storage,
		client:          &http.Client{Timeout: 60 * time.Second},
		huggingFaceURL:  HUGGINGFACE_API_URL,
		pollinationsURL: POLLINATIONS_API_URL,
		openAIURL:       OPENAI_IMAGES_URL,
	}
}

// GenerateSocialMediaImage runs the full pipeline: record the request,
// optimize the prompt for the target platform, synthesize the image with
// the selected provider, upload the bytes to storage and finalize the
// record. The generation row survives either way, completed or failed.
func (s *imageService) GenerateSocialMediaImage(ctx context.Context, req *transfer.GenerationRequest) (*models.ImageGeneration, *transfer.GenerationResult, error) {
	if req == nil || req.Prompt == "" {
		err := errors.New("prompt is required")
		slog.Info(err.Error())
		return nil, nil, err
	}

	platform := req.Platform
	if platform == "" {
		platform = models.PlatformInstagram
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "post"
	}
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	provider := req.Provider
	if provider == "" || provider == ProviderAuto {
		provider = s.selectProvider()
	}

	gen := models.ImageGeneration{
		Prompt:    req.Prompt,
		ModelUsed: fmt.Sprintf("%s:%s", provider, model),
		Status:    models.GenerationStatusPending,
	}
	genID, err := s.ir.Create(ctx, &gen)
	if err != nil {
		return nil, nil, fmt.Errorf("error recording image generation: %w", err)
	}

	optimizedPrompt := OptimizePrompt(req.Prompt, platform, contentType)

	params := defaultParams()
	params.Width, params.Height = platformDimensions(platform, contentType)

	start := time.Now()
	result, err := s.generate(ctx, optimizedPrompt, model, provider, params)
	generationTime := time.Since(start).Seconds()

	if err != nil {
		if markErr := s.ir.MarkFailed(ctx, genID, err.Error(), generationTime); markErr != nil {
			slog.Info(markErr.Error())
		}
		failed, getErr := s.ir.GetByID(ctx, genID)
		if getErr != nil {
			return nil, nil, getErr
		}
		return failed, &transfer.GenerationResult{
			Success:  false,
			Error:    err.Error(),
			Provider: provider,
			Model:    model,
		}, nil
	}

	result.GenerationTime = generationTime
	result.OriginalPrompt = req.Prompt
	result.OptimizedPrompt = optimizedPrompt
	result.Platform = platform
	result.ContentType = contentType

	modelUsed := fmt.Sprintf("%s:%s", result.Provider, result.Model)
	if err := s.ir.MarkCompleted(ctx, genID, result.ImageURL, modelUsed, generationTime); err != nil {
		return nil, nil, err
	}

	completed, err := s.ir.GetByID(ctx, genID)
	if err != nil {
		return nil, nil, err
	}

	return completed, result, nil
}

// selectProvider prefers HuggingFace when a key is configured and falls
// back to the keyless Pollinations endpoint otherwise.
func (s *imageService) selectProvider() string {
	if s.cfg.HuggingFaceAPIKey != "" {
		return ProviderHuggingFace
	}
	return ProviderPollinations
}

func (s *imageService) generate(ctx context.Context, prompt, model, provider string, params generationParams) (*transfer.GenerationResult, error) {
	var result *transfer.GenerationResult
	var err error

	switch provider {
	case ProviderHuggingFace:
		result, err = s.generateWithHuggingFace(ctx, prompt, model, params)
	case ProviderPollinations:
		result, err = s.generateWithPollinations(ctx, prompt, params)
	case ProviderOpenAI:
		result, err = s.generateWithOpenAI(ctx, prompt, params)
	default:
		result, err = s.generateWithPollinations(ctx, prompt, params)
	}

	// Pollinations is the free fallback when the primary provider breaks.
	if err != nil && provider != ProviderPollinations {
		slog.Error(fmt.Sprintf("Error generating image with %s: %v", provider, err))
		if fallback, fbErr := s.generateWithPollinations(ctx, prompt, params); fbErr == nil {
			return fallback, nil
		}
	}

	return result, err
}

func (s *imageService) generateWithHuggingFace(ctx context.Context, prompt, model string, params generationParams) (*transfer.GenerationResult, error) {
	modelID, ok := huggingFaceModels[model]
	if !ok {
		modelID = model
	}

	payload := map[string]interface{}{
		"inputs": prompt,
		"parameters": map[string]interface{}{
			"num_inference_steps": params.InferenceSteps,
			"guidance_scale":      params.GuidanceScale,
			"negative_prompt":     params.NegativePrompt,
			"width":               params.Width,
			"height":              params.Height,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s", s.huggingFaceURL, modelID)
	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.HuggingFaceAPIKey)
	req.Header.Set("Content-Type", "application/json")

	imageBytes, err := s.fetchImageBytes(req, "HuggingFace")
	if err != nil {
		return nil, err
	}

	imageURL, err := s.storeImage(ctx, imageBytes)
	if err != nil {
		return nil, err
	}

	return &transfer.GenerationResult{
		Success:  true,
		ImageURL: imageURL,
		Provider: ProviderHuggingFace,
		Model:    modelID,
		Prompt:   prompt,
	}, nil
}

func (s *imageService) generateWithPollinations(ctx context.Context, prompt string, params generationParams) (*transfer.GenerationResult, error) {
	query := url.Values{}
	query.Set("width", fmt.Sprintf("%d", params.Width))
	query.Set("height", fmt.Sprintf("%d", params.Height))
	query.Set("model", "flux")
	query.Set("enhance", "true")

	reqURL := fmt.Sprintf("%s/%s?%s", s.pollinationsURL, url.PathEscape(prompt), query.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	imageBytes, err := s.fetchImageBytes(req, "Pollinations")
	if err != nil {
		return nil, err
	}

	imageURL, err := s.storeImage(ctx, imageBytes)
	if err != nil {
		return nil, err
	}

	return &transfer.GenerationResult{
		Success:  true,
		ImageURL: imageURL,
		Provider: ProviderPollinations,
		Model:    "flux",
		Prompt:   prompt,
	}, nil
}

func (s *imageService) generateWithOpenAI(ctx context.Context, prompt string, params generationParams) (*transfer.GenerationResult, error) {
	if s.cfg.OpenAIAPIKey == "" {
		return nil, errors.New("OpenAI API key not available")
	}

	payload := map[string]interface{}{
		"prompt":          prompt,
		"n":               1,
		"size":            fmt.Sprintf("%dx%d", params.Width, params.Height),
		"quality":         "standard",
		"response_format": "url",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.openAIURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.OpenAIAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("OpenAI API error: %s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("OpenAI API error: %d", resp.StatusCode)
	}

	var result struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return nil, errors.New("no image returned from OpenAI")
	}

	// DALL-E returns a temporary URL; fetch the bytes and keep our own copy.
	imgReq, err := http.NewRequestWithContext(ctx, "GET", result.Data[0].URL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	imageBytes, err := s.fetchImageBytes(imgReq, "OpenAI")
	if err != nil {
		return nil, err
	}

	imageURL, err := s.storeImage(ctx, imageBytes)
	if err != nil {
		return nil, err
	}

	return &transfer.GenerationResult{
		Success:  true,
		ImageURL: imageURL,
		Provider: ProviderOpenAI,
		Model:    "dall-e-3",
		Prompt:   prompt,
	}, nil
}

func (s *imageService) fetchImageBytes(req *http.Request, provider string) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, fmt.Errorf("%s API error: %d - %s", provider, resp.StatusCode, msg)
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("%s returned an empty image", provider)
	}

	return body, nil
}

func (s *imageService) storeImage(ctx context.Context, imageBytes []byte) (string, error) {
	contentType := "image/png"
	extension := "png"
	if kind, err := filetype.Match(imageBytes); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
		extension = kind.Extension
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	key := fmt.Sprintf("%s.%s", id, extension)

	imageURL, err := s.storage.Upload(ctx, key, imageBytes, contentType)
	if err != nil {
		return "", fmt.Errorf("error uploading image: %w", err)
	}

	return imageURL, nil
}

// Platform styling fragments appended to user prompts.
var platformStyles = map[string]map[string]string{
	models.PlatformInstagram: {
		"post":  "high quality, professional photography, vibrant colors, Instagram-worthy, clean composition, good lighting",
		"story": "vertical format, mobile-friendly, eye-catching, bold text overlay space, story format",
		"cover": "professional headshot, clean background, business portrait style",
	},
	models.PlatformFacebook: {
		"post":  "engaging, shareable, professional quality, clear subject, good contrast",
		"story": "vertical format, mobile-optimized, attention-grabbing",
		"cover": "landscape format, professional, brand-appropriate, cover photo style",
	},
}

var realEstateKeywords = []string{
	"professional real estate photography",
	"architectural photography",
}

var qualityEnhancers = []string{
	"professional photography",
	"high resolution",
	"sharp focus",
}

// OptimizePrompt decorates the user's prompt with platform styling and
// quality enhancers. Property-related prompts additionally pick up real
// estate photography keywords.
func OptimizePrompt(basePrompt, platform, contentType string) string {
	optimized := basePrompt

	if styles, ok := platformStyles[platform]; ok {
		if style, ok := styles[contentType]; ok {
			optimized += ", " + style
		}
	}

	lower := strings.ToLower(basePrompt)
	for _, keyword := range []string{"house", "home", "property", "real estate", "listing"} {
		if strings.Contains(lower, keyword) {
			optimized += ", " + strings.Join(realEstateKeywords, ", ")
			break
		}
	}

	optimized += ", " + strings.Join(qualityEnhancers, ", ")

	return optimized
}

// platformDimensions returns the pixel size appropriate for the target
// platform and content type.
func platformDimensions(platform, contentType string) (int, int) {
	switch platform {
	case models.PlatformInstagram:
		if contentType == "story" {
			return 1080, 1920
		}
		return 1080, 1080
	case models.PlatformFacebook:
		if contentType == "cover" {
			return 1200, 630
		}
		return 1200, 1200
	default:
		return 1024, 1024
	}
}
