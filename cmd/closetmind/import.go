package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hrygo/closetmind/plugin/ai/vector"
	"github.com/hrygo/closetmind/server"
)

// Manifest describes a batch of wardrobe photos to register.
//
//	owner: alice
//	base_dir: ./photos
//	items:
//	  - image: "tops/**/*.jpg"
//	    category: tops
//	    color: white
type Manifest struct {
	Owner   string         `yaml:"owner"`
	BaseDir string         `yaml:"base_dir"`
	Items   []ManifestItem `yaml:"items"`
}

// ManifestItem applies one metadata set to every image its pattern matches.
// ImageURL names one photo, so it is only accepted with a plain file path.
type ManifestItem struct {
	Image       string `yaml:"image"`
	Category    string `yaml:"category"`
	Color       string `yaml:"color"`
	Material    string `yaml:"material"`
	Description string `yaml:"description"`
	ImageURL    string `yaml:"image_url"`
}

// importEntry is one image file ready to register.
type importEntry struct {
	Path     string
	Metadata vector.Metadata
}

// registrar is satisfied by retrieval.Indexer.
type registrar interface {
	Register(ctx context.Context, ownerID string, image []byte, metadata vector.Metadata) (string, error)
}

// progress is satisfied by progressbar.ProgressBar.
type progress interface {
	Add(num int) error
}

type importResult struct {
	Registered int
	Failed     []string
}

func newImportCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "import <manifest.yaml>",
		Short: "Register wardrobe photos listed in a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := loadManifest(args[0])
			if err != nil {
				return err
			}
			if owner != "" {
				manifest.Owner = owner
			}
			if strings.TrimSpace(manifest.Owner) == "" {
				return errors.New("owner is required: set it in the manifest or pass --owner")
			}

			entries, err := expandManifest(manifest)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return errors.New("manifest matched no images")
			}

			p, err := loadProfile()
			if err != nil {
				return err
			}
			if p.Driver == "memory" {
				return errors.New("import needs a persistent driver (postgres or sqlite)")
			}

			ctx := cmd.Context()
			components, err := server.NewComponents(ctx, p)
			if err != nil {
				return err
			}
			defer components.Close()
			if components.Indexer == nil {
				return errors.New("AI is disabled; set CLOSETMIND_AI_ENABLED=true to embed images")
			}

			bar := progressbar.NewOptions(len(entries),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Importing"),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
			result := runImport(ctx, components.Indexer, manifest.Owner, entries, bar)

			fmt.Fprintf(cmd.OutOrStdout(), "registered %d of %d images for %s\n", result.Registered, len(entries), manifest.Owner)
			for _, failure := range result.Failed {
				fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s\n", failure)
			}
			if len(result.Failed) > 0 {
				return errors.Errorf("%d images failed", len(result.Failed))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "wardrobe owner, overrides the manifest")
	return cmd
}

func loadManifest(manifestPath string) (*Manifest, error) {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}
	manifest, err := parseManifest(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid manifest %s", manifestPath)
	}
	// base_dir is relative to the manifest itself.
	if !filepath.IsAbs(manifest.BaseDir) {
		manifest.BaseDir = filepath.Join(filepath.Dir(manifestPath), manifest.BaseDir)
	}
	return manifest, nil
}

func parseManifest(raw []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, err
	}
	if len(manifest.Items) == 0 {
		return nil, errors.New("manifest lists no items")
	}
	for i, item := range manifest.Items {
		if strings.TrimSpace(item.Image) == "" {
			return nil, errors.Errorf("item %d: image pattern is required", i)
		}
		if !doublestar.ValidatePattern(filepath.ToSlash(item.Image)) {
			return nil, errors.Errorf("item %d: invalid image pattern %q", i, item.Image)
		}
		if item.ImageURL != "" && hasGlobMeta(item.Image) {
			return nil, errors.Errorf("item %d: image_url needs a single-file image, not the pattern %q", i, item.Image)
		}
		if _, err := vector.ParseCategory(item.Category); err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
	}
	return &manifest, nil
}

// hasGlobMeta reports whether pattern can match more than one file.
func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// expandManifest resolves every pattern under BaseDir. A file matched by
// several items is imported once, with the first item's metadata.
func expandManifest(manifest *Manifest) ([]importEntry, error) {
	baseDir := manifest.BaseDir
	if baseDir == "" {
		baseDir = "."
	}
	fsys := os.DirFS(baseDir)

	seen := make(map[string]bool)
	var entries []importEntry
	for i, item := range manifest.Items {
		category, _ := vector.ParseCategory(item.Category)
		pattern := path.Clean(filepath.ToSlash(item.Image))

		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "item %d: glob %q", i, item.Image)
		}
		sort.Strings(matches)

		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true
			entries = append(entries, importEntry{
				Path: filepath.Join(baseDir, filepath.FromSlash(match)),
				Metadata: vector.Metadata{
					Category:    category,
					Color:       item.Color,
					Material:    item.Material,
					Description: item.Description,
					ImageURL:    item.ImageURL,
				},
			})
		}
	}
	return entries, nil
}

// runImport registers entries one by one; a failing image is reported and skipped.
func runImport(ctx context.Context, r registrar, owner string, entries []importEntry, bar progress) importResult {
	var result importResult
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, fmt.Sprintf("%s: %v", entry.Path, err))
			continue
		}
		image, err := os.ReadFile(entry.Path)
		if err == nil {
			_, err = r.Register(ctx, owner, image, entry.Metadata)
		}
		if err != nil {
			result.Failed = append(result.Failed, fmt.Sprintf("%s: %v", entry.Path, err))
		} else {
			result.Registered++
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return result
}
