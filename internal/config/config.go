package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	workDirName   = "work"
	jobsDirName   = "jobs"
	resultDirName = "output"

	defaultEmojiSize     = 100
	defaultMaxDuration   = 3.0
	defaultMaxVideoSize  = 64000
	defaultRenderWorkers = 4
	defaultFFmpegBin     = "ffmpeg"

	// github.com/sot-tech/LottieConverter, an rlottie-based command line tool.
	defaultRendererBin  = "lottieconverter"
	defaultRendererArgs = "{input} {output} png {size}x{size} {frame}"
)

type (
	Config struct {
		BotApiKey      string
		BotApiEndpoint string
		UserID         int64
		Debug          bool
		Media          Media
		Paths          Paths
	}
	Media struct {
		EmojiSize     int
		MaxDuration   float64
		MaxVideoSize  int64
		FFmpegBin     string
		RendererBin   string
		RendererArgs  []string
		RenderWorkers int
	}
	Paths struct {
		Work   string
		Jobs   string
		Result string
	}
)

func NewConfig(cfgFolderPath string) (*Config, error) {
	const errMsg = "Config.NewConfig"

	c := &Config{
		Media: Media{
			EmojiSize:     defaultEmojiSize,
			MaxDuration:   defaultMaxDuration,
			MaxVideoSize:  defaultMaxVideoSize,
			FFmpegBin:     defaultFFmpegBin,
			RendererBin:   defaultRendererBin,
			RendererArgs:  strings.Fields(defaultRendererArgs),
			RenderWorkers: defaultRenderWorkers,
		},
	}

	envPath := filepath.Join(cfgFolderPath, "app.env")

	err := c.loadEnv(envPath)
	if err != nil {
		return nil, errors.Wrap(err, errMsg)
	}

	c.setPaths()

	err = c.validate()
	if err != nil {
		return nil, errors.Wrap(err, errMsg)
	}

	return c, nil
}

func (c *Config) loadEnv(filePath string) error {
	const errMsg = "loadEnv"

	// The env file is optional, plain environment variables work the same way.
	err := godotenv.Load(filePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, errMsg)
	}

	c.BotApiKey = os.Getenv("BOT_API_KEY")
	c.BotApiEndpoint = os.Getenv("BOT_API_ENDPOINT")
	c.Debug, _ = strconv.ParseBool(os.Getenv("DEBUG"))
	c.Paths.Work = os.Getenv("WORK_DIR")

	if v := os.Getenv("USER_ID"); v != "" {
		c.UserID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrap(errors.New("USER_ID must be a number"), errMsg)
		}
	}

	if v := os.Getenv("EMOJI_SIZE"); v != "" {
		c.Media.EmojiSize, err = strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, errMsg)
		}
	}

	if v := os.Getenv("MAX_DURATION"); v != "" {
		c.Media.MaxDuration, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(err, errMsg)
		}
	}

	if v := os.Getenv("MAX_VIDEO_SIZE"); v != "" {
		c.Media.MaxVideoSize, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrap(err, errMsg)
		}
	}

	if v := os.Getenv("RENDER_WORKERS"); v != "" {
		c.Media.RenderWorkers, err = strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, errMsg)
		}
	}

	if v := os.Getenv("FFMPEG_BIN"); v != "" {
		c.Media.FFmpegBin = v
	}

	if v := os.Getenv("RENDERER_BIN"); v != "" {
		c.Media.RendererBin = v
	}

	if v := os.Getenv("RENDERER_ARGS"); v != "" {
		c.Media.RendererArgs = strings.Fields(v)
	}

	return nil
}

func (c *Config) setPaths() {
	if c.Paths.Work == "" {
		c.Paths.Work = workDirName
	}

	c.Paths.Jobs = filepath.Join(c.Paths.Work, jobsDirName)
	c.Paths.Result = filepath.Join(c.Paths.Work, resultDirName)
}

func (c *Config) validate() error {
	const errMsg = "validate"

	switch {
	case c.BotApiKey == "":
		return errors.Wrap(errors.New("BOT_API_KEY is required"), errMsg)
	case c.Media.EmojiSize <= 0:
		return errors.Wrap(errors.New("EMOJI_SIZE must be positive"), errMsg)
	case c.Media.MaxDuration <= 0:
		return errors.Wrap(errors.New("MAX_DURATION must be positive"), errMsg)
	case c.Media.MaxVideoSize <= 0:
		return errors.Wrap(errors.New("MAX_VIDEO_SIZE must be positive"), errMsg)
	case c.Media.RenderWorkers <= 0:
		return errors.Wrap(errors.New("RENDER_WORKERS must be positive"), errMsg)
	}

	return nil
}

// RequireUser reports an error when no pack owner is configured. Only the CLI
// flow needs it, in bot mode the owner is whoever sent the request.
func (c *Config) RequireUser() error {
	if c.UserID == 0 {
		return errors.Wrap(errors.New("USER_ID is required"), "Config.RequireUser")
	}

	return nil
}
