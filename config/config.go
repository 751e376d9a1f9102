package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"homeval/models"
)

//go:embed sites/cian.yaml
var defaultSiteYAML []byte

const DefaultSiteID = "cian"

type Config struct {
	Browser   BrowserConfig
	Proxy     ProxyConfig
	Artifacts ArtifactConfig
	Canary    CanaryConfig
	DBPath    string
	LogPath   string
	LogLevel  string
	LogMaxMB  int
	SiteID    string
	SitesDir  string
	Sites     map[string]*SiteConfig
}

type BrowserConfig struct {
	Driver            string
	Headless          bool
	KeepOpen          bool
	NavigationTimeout time.Duration
	StepTimeout       time.Duration
	LoadTimeout       time.Duration
	ChromeBin         string
}

type ProxyConfig struct {
	URL string
}

type ArtifactConfig struct {
	Dir string
	S3  S3Config
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

type CanaryConfig struct {
	Cron string
}

type SiteConfig struct {
	ID             string                `yaml:"id"`
	Name           string                `yaml:"name"`
	Handler        string                `yaml:"handler"`
	UserAgent      string                `yaml:"user_agent"`
	AcceptLanguage string                `yaml:"accept_language"`
	Endpoints      map[string]string     `yaml:"endpoints"`
	BlockMarkers   []string              `yaml:"block_markers"`
	Locators       Locators              `yaml:"locators"`
	Flow           FlowConfig            `yaml:"flow"`
	Steps          map[string]StepConfig `yaml:"steps"`
	Defaults       Defaults              `yaml:"defaults"`
}

// Locators holds the root XPath expressions and the CSS selectors used inside
// the roots.
type Locators struct {
	SummaryRoot  string   `yaml:"summary_root"`
	HouseRoot    string   `yaml:"house_root"`
	NearestRoot  string   `yaml:"nearest_root"`
	ReportRoot   string   `yaml:"report_root"`
	OfferHistory []string `yaml:"offer_history"`
	OfferItem    string   `yaml:"offer_item"`
	NearestItem  string   `yaml:"nearest_item"`
}

type FlowConfig struct {
	StudioLabel     string `yaml:"studio_label"`
	AreaDecimals    int    `yaml:"area_decimals"`
	SurveySkipText  string `yaml:"survey_skip_text"`
	DetailTabText   string `yaml:"detail_tab_text"`
	SurveyCardIndex int    `yaml:"survey_card_index"`
}

type StepConfig struct {
	Force   bool          `yaml:"force"`
	Timeout time.Duration `yaml:"timeout"`
}

// Defaults is the input used when the caller supplies none.
type Defaults struct {
	Active  models.ValuationInput `yaml:"active"`
	Passive models.PassiveInput   `yaml:"passive"`
}

func (s *SiteConfig) Endpoint(name string) (string, error) {
	u, ok := s.Endpoints[name]
	if !ok || u == "" {
		return "", fmt.Errorf("site %s: endpoint %q not configured", s.ID, name)
	}
	return u, nil
}

// Step returns the settings for a sequencer step; unknown steps get the zero value.
func (s *SiteConfig) Step(name string) StepConfig {
	return s.Steps[name]
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Browser: BrowserConfig{
			Driver:            getEnv("BROWSER_DRIVER", "playwright"),
			Headless:          getEnvBool("BROWSER_HEADLESS", true),
			KeepOpen:          getEnvBool("BROWSER_KEEP_OPEN", false),
			NavigationTimeout: getEnvDuration("NAV_TIMEOUT", 10*time.Second),
			StepTimeout:       getEnvDuration("STEP_TIMEOUT", 15*time.Second),
			LoadTimeout:       getEnvDuration("LOAD_TIMEOUT", 20*time.Second),
			ChromeBin:         os.Getenv("CHROME_BIN"),
		},
		Proxy: ProxyConfig{
			URL: os.Getenv("PROXY_URL"),
		},
		Artifacts: ArtifactConfig{
			Dir: getEnv("ARTIFACT_DIR", "artifacts"),
			S3: S3Config{
				Bucket:          os.Getenv("S3_BUCKET"),
				Region:          getEnv("S3_REGION", "us-east-1"),
				Endpoint:        os.Getenv("S3_ENDPOINT"),
				AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			},
		},
		Canary: CanaryConfig{
			Cron: os.Getenv("CANARY_CRON"),
		},
		DBPath:   getEnv("DB_PATH", "homeval.db"),
		LogPath:  getEnv("LOG_PATH", "homeval.log"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogMaxMB: getEnvInt("LOG_MAX_MB", 2),
		SiteID:   getEnv("SITE_ID", DefaultSiteID),
		SitesDir: getEnv("SITES_DIR", "config/sites"),
		Sites:    make(map[string]*SiteConfig),
	}

	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}

	if _, ok := cfg.Sites[cfg.SiteID]; !ok {
		return nil, fmt.Errorf("site %q not configured", cfg.SiteID)
	}

	return cfg, nil
}

// Site returns the active site configuration.
func (c *Config) Site() *SiteConfig {
	return c.Sites[c.SiteID]
}

func (c *Config) loadSiteConfigs() error {
	site, err := DefaultSite()
	if err != nil {
		return fmt.Errorf("parse embedded site config: %w", err)
	}
	c.Sites[site.ID] = site

	entries, err := os.ReadDir(c.SitesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(c.SitesDir, entry.Name())
		site, err := LoadSiteFile(path)
		if err != nil {
			return err
		}

		c.Sites[site.ID] = site
	}

	return nil
}

// DefaultSite parses the embedded site configuration.
func DefaultSite() (*SiteConfig, error) {
	var site SiteConfig
	if err := yaml.Unmarshal(defaultSiteYAML, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// LoadSiteFile reads a site YAML file layered over the embedded defaults, so
// a file only needs the keys it changes.
func LoadSiteFile(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	site, err := DefaultSite()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, site); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if site.ID == "" {
		return nil, fmt.Errorf("parse %s: missing id", path)
	}
	return site, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
