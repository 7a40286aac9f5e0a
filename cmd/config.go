package cmd

import (
	"time"

	"github.com/go-playground/validator"
	"github.com/inhies/go-bytesize"
	"github.com/ish-xyz/roster-photocache/pkg/cache"
	"github.com/ish-xyz/roster-photocache/pkg/coordinator"
	"github.com/ish-xyz/roster-photocache/pkg/dispatch"
	"github.com/ish-xyz/roster-photocache/pkg/fetch"
	"github.com/spf13/viper"
)

type Config struct {
	Cache struct {
		MaxSize int `mapstructure:"maxSize" validate:"valid-max-size" yaml:"maxSize"`
	} `mapstructure:"cache" yaml:"cache"`

	Fetch struct {
		Timeout      time.Duration `mapstructure:"timeout" validate:"valid-time,required" yaml:"timeout"`
		UploadsDir   string        `mapstructure:"uploadsDir" validate:"required" yaml:"uploadsDir"`
		MaxPhotoSize string        `mapstructure:"maxPhotoSize" validate:"required,valid-bsize" yaml:"maxPhotoSize"`
		MaxPixels    int64         `mapstructure:"maxPixels" validate:"valid-max-pixels" yaml:"maxPixels"`
		CAPath       string        `mapstructure:"caPath" yaml:"caPath"`
		Thumbnail    struct {
			Width  int `mapstructure:"width" validate:"valid-thumbnail" yaml:"width"`
			Height int `mapstructure:"height" validate:"valid-thumbnail" yaml:"height"`
		} `mapstructure:"thumbnail" yaml:"thumbnail"`
	} `mapstructure:"fetch" yaml:"fetch"`

	Dispatch struct {
		BufferSize int `mapstructure:"bufferSize" validate:"min=0" yaml:"bufferSize"`
	} `mapstructure:"dispatch" yaml:"dispatch"`

	Metrics struct {
		Address string `mapstructure:"address" yaml:"address"`
	} `mapstructure:"metrics" yaml:"metrics"`
}

func LoadAndValidateConfig(configFile string) (*Config, error) {

	var c Config

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(configFile)
	v.SetDefault("cache.maxSize", cache.DEFAULT_MAX_SIZE)
	v.SetDefault("dispatch.bufferSize", dispatch.DEFAULT_BUFFER_SIZE)
	v.SetDefault("fetch.uploadsDir", ".")
	v.SetDefault("fetch.timeout", fetch.DEFAULT_TIMEOUT)
	v.SetDefault("fetch.maxPhotoSize", fetch.DEFAULT_MAX_PHOTO_SIZE.String())
	v.SetDefault("fetch.maxPixels", fetch.DEFAULT_MAX_PIXELS)
	v.SetDefault("fetch.thumbnail.width", fetch.DEFAULT_THUMBNAIL_WIDTH)
	v.SetDefault("fetch.thumbnail.height", fetch.DEFAULT_THUMBNAIL_HEIGHT)

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return nil, err
	}

	val := NewValidator()

	if err := val.Struct(c); err != nil {
		return nil, err
	}

	return &c, nil
}

func NewValidator() *validator.Validate {

	validate := validator.New()

	validate.RegisterValidation("valid-time", ValidateTime)
	validate.RegisterValidation("valid-bsize", ValidateBSize)
	validate.RegisterValidation("valid-max-size", ValidateMaxSize)
	validate.RegisterValidation("valid-thumbnail", ValidateThumbnail)
	validate.RegisterValidation("valid-max-pixels", ValidateMaxPixels)

	return validate
}

func (c *Config) FetchConfig() fetch.Config {
	// validated on load
	maxSize, _ := bytesize.Parse(c.Fetch.MaxPhotoSize)
	return fetch.Config{
		Timeout:         c.Fetch.Timeout,
		UploadsDir:      c.Fetch.UploadsDir,
		MaxPhotoSize:    maxSize,
		MaxPixels:       c.Fetch.MaxPixels,
		ThumbnailWidth:  c.Fetch.Thumbnail.Width,
		ThumbnailHeight: c.Fetch.Thumbnail.Height,
	}
}

func (c *Config) CoordinatorConfig() coordinator.Config {
	return coordinator.Config{
		MaxSize:    c.Cache.MaxSize,
		BufferSize: c.Dispatch.BufferSize,
	}
}

// Validators

func ValidateTime(fl validator.FieldLevel) bool {

	minValue := time.Duration(time.Second * 1)
	value, ok := fl.Field().Interface().(time.Duration)
	if !ok {
		return false
	}
	return value >= minValue
}

func ValidateBSize(fl validator.FieldLevel) bool {
	sizeStr, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	size, err := bytesize.Parse(sizeStr)
	return err == nil && size > 0
}

func ValidateMaxSize(fl validator.FieldLevel) bool {
	size, ok := fl.Field().Interface().(int)
	if !ok {
		return false
	}

	return size >= 1
}

func ValidateThumbnail(fl validator.FieldLevel) bool {
	px, ok := fl.Field().Interface().(int)
	if !ok {
		return false
	}

	return px >= 1 && px <= 1024
}

func ValidateMaxPixels(fl validator.FieldLevel) bool {
	px, ok := fl.Field().Interface().(int64)
	if !ok {
		return false
	}

	return px >= 1
}
