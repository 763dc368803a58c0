package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# style name or JSON path for the reader pane (default "auto")
style: "auto"
# mouse support
mouse: false
# word-wrap the reader pane at width, 0 fits the terminal
width: 0
# write debug logs
debug: false

api:
  # base URL of the article backend
  base_url: "http://localhost:8000"
  # per-request timeout, 0 waits forever
  timeout: "0s"
  # throttle outgoing requests, 0 disables
  requests_per_minute: 0

voice:
  # voice preselected in the dashboard and used by 'add'
  default: "en-US-Standard-A"
  # text read by voice previews
  # sample_text: "This is a sample of how this voice sounds."

audio:
  # ffmpeg binary used to decode article audio
  ffmpeg: "ffmpeg"
  sample_rate: 44100
  decode_timeout: "2m"

cache:
  # decoded audio cache, defaults to the user cache directory
  # dir: "~/.cache/articlereader/audio"
  memory_mb: 64
  disk_mb: 512
  # zstd level 0-4, 0 stores uncompressed
  compression_level: 3
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the articlereader config file",
	Long:    paragraph(fmt.Sprintf("\n%s the articlereader config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("articlereader config\narticlereader config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("ArticleReader", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

// ensureConfigFile makes sure configFile names a YAML file, writing the
// default configuration there if nothing exists yet.
func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
	}
	if configFile == "" {
		return errors.New("no configuration file location: pass --config")
	}
	return writeDefaultConfig(configFile)
}

func writeDefaultConfig(file string) error {
	if ext := path.Ext(file); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	_, err := os.Stat(file)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("unable to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return fmt.Errorf("unable create directory: %w", err)
	}
	if err := os.WriteFile(file, []byte(defaultConfig), 0o600); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	log.Debug("wrote default configuration", "path", file)
	return nil
}
