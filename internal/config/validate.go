package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		return errors.New("paths.input_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if c.Paths.InputDir == c.Paths.LibraryDir {
		return errors.New("paths.input_dir and paths.library_dir must differ")
	}
	return nil
}

func (c *Config) validateOCR() error {
	for name, value := range map[string]float64{
		"ocr.crop_top":    c.OCR.CropTop,
		"ocr.crop_bottom": c.OCR.CropBottom,
		"ocr.crop_sides":  c.OCR.CropSides,
	} {
		if value < 0 || value >= 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if c.OCR.CropSides >= 0.5 {
		return errors.New("ocr.crop_sides must be below 0.5")
	}
	if c.OCR.ThresholdBlock < 3 || c.OCR.ThresholdBlock%2 == 0 {
		return errors.New("ocr.threshold_block must be an odd number >= 3")
	}
	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		return errors.New("ocr.page_seg_mode must be between 0 and 13")
	}
	return nil
}

func (c *Config) validateSearch() error {
	switch c.Search.Provider {
	case "ytmusic":
	default:
		return fmt.Errorf("search.provider %q is not supported (expected ytmusic)", c.Search.Provider)
	}
	if c.Search.MinScore < 0 || c.Search.MinScore > 1 {
		return errors.New("search.min_score must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	if c.MusicBrainz.MinScore > 1 {
		return errors.New("musicbrainz.min_score must be between 0 and 1")
	}
	if c.Spotify.MinScore > 1 {
		return errors.New("spotify.min_score must be between 0 and 1")
	}
	if c.Spotify.Enabled && (c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "") {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("spotify.client_id and spotify.client_secret are required when spotify.enabled is true. Set SPOTIFY_ID/SPOTIFY_SECRET (a .env file works) or edit %s", defaultPath)
	}
	return nil
}

func (c *Config) validateDownload() error {
	switch c.Download.Resolver {
	case "auto", "yt-dlp", "native":
	default:
		return fmt.Errorf("download.resolver %q is not supported (expected auto, yt-dlp, or native)", c.Download.Resolver)
	}
	switch c.Download.NonInteractive {
	case "skip", "accept":
	default:
		return fmt.Errorf("download.non_interactive %q is not supported (expected skip or accept)", c.Download.NonInteractive)
	}
	if c.Download.Channels > 2 {
		return errors.New("download.channels must be 1 or 2")
	}
	return nil
}
