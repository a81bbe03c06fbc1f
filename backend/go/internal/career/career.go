// Package career 封装求职相关的两个后端操作：生成求职信和分析简历。
package career

import (
	"MultiAI_Assistant/backend/go/internal/config"
	"MultiAI_Assistant/backend/go/pkg/cache"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"MultiAI_Assistant/backend/go/pkg/orchestrator"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTone = "professional"
	defaultTopN = 5
)

var (
	ErrCVRequired      = errors.New("CV file is required")
	ErrRoleRequired    = errors.New("applying role is required")
	ErrCompanyRequired = errors.New("company name is required")
	ErrInvalidResponse = errors.New("invalid response format from server")
)

// File 是上传的简历文件。
type File struct {
	Name    string
	Content []byte
}

// CoverLetterRequest 是生成求职信的输入。Tone 为空时使用 "professional"。
type CoverLetterRequest struct {
	CV                     File
	ApplyingRole           string
	CompanyName            string
	Tone                   string
	AdditionalInstructions string
}

// CoverLetter 是 /generate-cover-letter 的响应。
type CoverLetter struct {
	CoverLetter   string         `json:"cover_letter"`
	ExtractedInfo map[string]any `json:"extracted_info"`
	CVText        string         `json:"cv_text"`
}

// CVAnalysis 是 /analyze-cv 的响应。
type CVAnalysis struct {
	CVData          map[string]any   `json:"cv_data"`
	Recommendations map[string]any   `json:"recommendations"`
	MatchingJobs    []map[string]any `json:"matching_jobs"`
}

// Client 发送求职相关请求。
type Client struct {
	orch     *orchestrator.Orchestrator
	baseURL  string
	plan     orchestrator.RetryPlan
	cache    cache.Cache
	cacheTTL time.Duration
	log      *logger.Logger
}

// New 创建 Client。c 为 nil 时简历分析结果不缓存。
func New(orch *orchestrator.Orchestrator, cfg config.BackendConfig, c cache.Cache, ttl time.Duration, log *logger.Logger) *Client {
	if log == nil {
		log = logger.New("career", "", "")
	}
	return &Client{
		orch:     orch,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		plan:     orchestrator.PlanFromConfig(cfg.Retry),
		cache:    c,
		cacheTTL: ttl,
		log:      log,
	}
}

func multipartStrategy() []orchestrator.Strategy {
	return []orchestrator.Strategy{{Name: "multipart", Encoding: orchestrator.Multipart}}
}

// GenerateCoverLetter 根据简历和目标职位生成求职信。
func (c *Client) GenerateCoverLetter(ctx context.Context, req CoverLetterRequest) (CoverLetter, error) {
	switch {
	case len(req.CV.Content) == 0:
		return CoverLetter{}, ErrCVRequired
	case strings.TrimSpace(req.ApplyingRole) == "":
		return CoverLetter{}, ErrRoleRequired
	case strings.TrimSpace(req.CompanyName) == "":
		return CoverLetter{}, ErrCompanyRequired
	}
	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = defaultTone
	}

	fields := []orchestrator.Field{
		{Name: "applying_role", Value: req.ApplyingRole},
		{Name: "company_name", Value: req.CompanyName},
		{Name: "tone", Value: tone},
	}
	// 可选字段只在有值时发送
	if s := strings.TrimSpace(req.AdditionalInstructions); s != "" {
		fields = append(fields, orchestrator.Field{Name: "additional_instructions", Value: s})
	}
	intent := orchestrator.Intent{
		Name:   "generate-cover-letter",
		URL:    c.baseURL + "/generate-cover-letter",
		Fields: fields,
		Files:  []orchestrator.File{{Field: "cv_file", Name: req.CV.Name, Content: req.CV.Content}},
	}

	var out CoverLetter
	if err := c.execute(ctx, intent, &out); err != nil {
		return CoverLetter{}, err
	}
	return out, nil
}

// AnalyzeCV 分析简历并返回 topN 个匹配的职位。相同的简历和 topN 在缓存有效期内
// 不会重复请求后端；后端失败时如果有过期的缓存结果则返回它。
func (c *Client) AnalyzeCV(ctx context.Context, cv File, topN int) (CVAnalysis, cache.Source, error) {
	if len(cv.Content) == 0 {
		return CVAnalysis{}, cache.SourceFetched, ErrCVRequired
	}
	if topN <= 0 {
		topN = defaultTopN
	}

	fetch := func(ctx context.Context) (CVAnalysis, error) {
		n := strconv.Itoa(topN)
		intent := orchestrator.Intent{
			Name:   "analyze-cv",
			URL:    c.baseURL + "/analyze-cv?" + url.Values{"top_n": {n}}.Encode(),
			Fields: []orchestrator.Field{{Name: "top_n", Value: n}},
			Files:  []orchestrator.File{{Field: "file", Name: cv.Name, Content: cv.Content}},
		}
		var out CVAnalysis
		err := c.execute(ctx, intent, &out)
		return out, err
	}

	if c.cache == nil {
		out, err := fetch(ctx)
		return out, cache.SourceFetched, err
	}
	out, src, err := cache.Fetch(ctx, c.cache, AnalysisKey(cv.Content, topN), c.cacheTTL, fetch, nil)
	if err == nil && src != cache.SourceFetched {
		c.log.Debug(fmt.Sprintf("analyze-cv served from cache (%s)", src))
	}
	return out, src, err
}

// AnalysisKey 是简历分析结果的缓存键。
func AnalysisKey(content []byte, topN int) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("career:cv:%s:%d", hex.EncodeToString(sum[:]), topN)
}

// execute 运行意图并把 JSON 响应解码到 out。响应不是 JSON 对象时返回 ErrInvalidResponse。
func (c *Client) execute(ctx context.Context, intent orchestrator.Intent, out any) error {
	res := c.orch.Execute(ctx, intent, multipartStrategy(), &c.plan)
	if !res.Success {
		return res.Err
	}
	if res.Fields == nil {
		return fmt.Errorf("%s: %w", intent.Name, ErrInvalidResponse)
	}
	if err := res.Decode(out); err != nil {
		return fmt.Errorf("%s: %w: %v", intent.Name, ErrInvalidResponse, err)
	}
	return nil
}
