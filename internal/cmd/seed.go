package cmd

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewSeedCmd creates and returns the seed subcommand for the linkcache CLI.
// It generates a synthetic export tree in the layout rewrite expects.
func NewSeedCmd() *cobra.Command {
	var (
		outputPath string
		opts       seedOptions
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a synthetic chat export for testing",
		Long: `Generate a synthetic chat export for testing linkcache.

Creates users.json, channels.json and one directory per channel, named by a
UUID, holding one YYYY-MM-DD.json file per day. Messages carry file uploads,
avatars and link previews whose URLs point at the media hosts, in both
rewritten and skipped fields, plus links to other hosts. Slashes are escaped
the way the platform exports them.

The same --seed always produces the same tree.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := generateExport(outputPath, opts)
			if err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "Created %d files in %d channels with %d messages\n",
					stats.files, opts.channels, stats.messages)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Path to output directory (required)")
	cmd.Flags().IntVar(&opts.channels, "channels", 5, "Number of channels")
	cmd.Flags().IntVar(&opts.days, "days", 30, "Number of days per channel")
	cmd.Flags().IntVar(&opts.messages, "messages", 20, "Maximum messages per day")
	cmd.Flags().IntVar(&opts.users, "users", 10, "Number of users")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "Random seed")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	cmd.MarkFlagRequired("output")

	return cmd
}

type seedOptions struct {
	channels int
	days     int
	messages int
	users    int
	seed     uint64
}

type seedStats struct {
	files    int
	messages int
}

type seedUser struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Profile seedProfile `json:"profile"`
}

type seedProfile struct {
	AvatarHash string `json:"avatar_hash"`
	Image24    string `json:"image_24"`
	Image72    string `json:"image_72"`
	Image512   string `json:"image_512"`
	ImageOrig  string `json:"image_original,omitempty"`
}

type seedChannel struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Created int64  `json:"created"`
}

type seedMessage struct {
	Type        string           `json:"type"`
	User        string           `json:"user"`
	Text        string           `json:"text"`
	TS          string           `json:"ts"`
	UserProfile *seedProfile     `json:"user_profile,omitempty"`
	Files       []seedFile       `json:"files,omitempty"`
	Attachments []seedAttachment `json:"attachments,omitempty"`
}

type seedFile struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	URLPrivate         string `json:"url_private"`
	URLPrivateDownload string `json:"url_private_download"`
	Thumb64            string `json:"thumb_64,omitempty"`
	Thumb360           string `json:"thumb_360,omitempty"`
	Permalink          string `json:"permalink"`
	PermalinkPublic    string `json:"permalink_public"`
}

type seedAttachment struct {
	FromURL   string `json:"from_url"`
	ImageURL  string `json:"image_url,omitempty"`
	ThumbURL  string `json:"thumb_url,omitempty"`
	ServiceIcon string `json:"service_icon,omitempty"`
}

var seedExtensions = []string{".png", ".jpg", ".gif", ".pdf", ".jpeg", ".tar.gz", ""}

// generateExport writes a synthetic export below outputPath.
func generateExport(outputPath string, opts seedOptions) (seedStats, error) {
	var stats seedStats
	if opts.channels < 1 || opts.days < 1 || opts.users < 1 || opts.messages < 0 {
		return stats, fmt.Errorf("channels, days and users must be positive")
	}
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return stats, fmt.Errorf("failed to create output directory: %w", err)
	}

	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], opts.seed)
	src := rand.NewChaCha8(key)
	g := &seedGen{rng: rand.New(src), ids: src}

	users := make([]seedUser, opts.users)
	for i := range users {
		users[i] = g.user(i)
	}
	if err := writeExportFile(filepath.Join(outputPath, "users.json"), users); err != nil {
		return stats, err
	}
	stats.files++

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	channels := make([]seedChannel, opts.channels)
	for i := range channels {
		id, err := uuid.NewRandomFromReader(g.ids)
		if err != nil {
			return stats, fmt.Errorf("failed to generate channel id: %w", err)
		}
		channels[i] = seedChannel{ID: fmt.Sprintf("C%08X", g.rng.Uint32()), Name: id.String(), Created: base.Unix()}
	}
	if err := writeExportFile(filepath.Join(outputPath, "channels.json"), channels); err != nil {
		return stats, err
	}
	stats.files++

	for _, ch := range channels {
		dir := filepath.Join(outputPath, ch.Name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return stats, fmt.Errorf("failed to create channel directory: %w", err)
		}
		for d := range opts.days {
			day := base.AddDate(0, 0, d)
			n := g.rng.IntN(opts.messages + 1)
			msgs := make([]seedMessage, n)
			for i := range msgs {
				msgs[i] = g.message(users, day)
			}
			path := filepath.Join(dir, day.Format(time.DateOnly)+".json")
			if err := writeExportFile(path, msgs); err != nil {
				return stats, err
			}
			stats.files++
			stats.messages += n
		}
	}
	return stats, nil
}

type seedGen struct {
	rng *rand.Rand
	ids io.Reader
}

func (g *seedGen) hex(n int) string {
	const digits = "0123456789abcdef"
	b := make([]byte, n)
	for i := range b {
		b[i] = digits[g.rng.IntN(len(digits))]
	}
	return string(b)
}

func (g *seedGen) user(i int) seedUser {
	id := fmt.Sprintf("U%08X", g.rng.Uint32())
	hash := g.hex(12)
	p := seedProfile{AvatarHash: hash}
	if g.rng.IntN(3) == 0 {
		// Users without an upload fall back to gravatar.
		grav := "https://secure.gravatar.com/avatar/" + g.hex(32) + ".jpg?s=%d&d=https%%3A%%2F%%2Fa.slack-edge.com%%2Fdf10d%%2Fimg%%2Favatars%%2Fava_0001-%d.png"
		p.Image24 = fmt.Sprintf(grav, 24, 24)
		p.Image72 = fmt.Sprintf(grav, 72, 72)
		p.Image512 = fmt.Sprintf(grav, 512, 512)
	} else {
		prefix := fmt.Sprintf("https://avatars.slack-edge.com/2020-01-%02d/%d_%s", 1+g.rng.IntN(28), g.rng.Int64N(1e12), hash)
		p.Image24 = prefix + "_24.jpg"
		p.Image72 = prefix + "_72.jpg"
		p.Image512 = prefix + "_512.jpg"
		p.ImageOrig = prefix + "_original.jpg"
	}
	return seedUser{ID: id, Name: fmt.Sprintf("user%d", i), Profile: p}
}

func (g *seedGen) message(users []seedUser, day time.Time) seedMessage {
	u := users[g.rng.IntN(len(users))]
	ts := day.Add(time.Duration(g.rng.Int64N(int64(24 * time.Hour))))
	m := seedMessage{
		Type:        "message",
		User:        u.ID,
		Text:        "message " + g.hex(8),
		TS:          fmt.Sprintf("%d.%06d", ts.Unix(), g.rng.IntN(1e6)),
		UserProfile: &u.Profile,
	}

	switch g.rng.IntN(4) {
	case 0:
		fileID := fmt.Sprintf("F%08X", g.rng.Uint32())
		name := "upload_" + g.hex(6) + seedExtensions[g.rng.IntN(len(seedExtensions))]
		team := "T00000001"
		m.Files = []seedFile{{
			ID:                 fileID,
			Name:               name,
			URLPrivate:         fmt.Sprintf("https://files.slack.com/files-pri/%s-%s/%s", team, fileID, name),
			URLPrivateDownload: fmt.Sprintf("https://files.slack.com/files-pri/%s-%s/download/%s", team, fileID, name),
			Thumb64:            fmt.Sprintf("https://files.slack.com/files-tmb/%s-%s-%s/%s_64.png", team, fileID, g.hex(10), name),
			Thumb360:           fmt.Sprintf("https://files.slack.com/files-tmb/%s-%s-%s/%s_360.png", team, fileID, g.hex(10), name),
			Permalink:          fmt.Sprintf("https://example.slack.com/files/%s/%s/%s", u.ID, fileID, name),
			PermalinkPublic:    fmt.Sprintf("https://slack-files.com/%s-%s-%s", team, fileID, g.hex(10)),
		}}
	case 1:
		m.Attachments = []seedAttachment{{
			FromURL:   "https://example.com/articles/" + g.hex(6),
			ImageURL:  "https://i0.wp.com/example.com/" + g.hex(6) + ".jpg?w=1200",
			ServiceIcon: "https://a.slack-edge.com/80588/img/unfurl_icons/" + g.hex(6) + ".png",
		}}
	case 2:
		m.Text += " see https://example.org/" + g.hex(4)
	}
	return m
}

// writeExportFile writes v as indented JSON with escaped slashes, one value
// per line.
func writeExportFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	data = bytes.ReplaceAll(data, []byte("/"), []byte(`\/`))
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
