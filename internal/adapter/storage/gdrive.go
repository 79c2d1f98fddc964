package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/semmidev/sqlvault/internal/config"
)

type GDriveStorage struct {
	service  *drive.Service
	folderID string
}

// NewGDrive authenticates with a service account file, or with an OAuth
// client secret plus refresh token obtained through `sqlvault gdrive-auth`.
func NewGDrive(ctx context.Context, cfg *config.UploadTarget) (*GDriveStorage, error) {
	if cfg.FolderID == "" {
		return nil, fmt.Errorf("gdrive folder_id is required")
	}

	var opt option.ClientOption
	switch {
	case cfg.ClientSecretFile != "" && cfg.RefreshToken != "":
		oauthCfg, err := LoadDriveOAuthConfig(cfg.ClientSecretFile)
		if err != nil {
			return nil, err
		}
		ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
		opt = option.WithTokenSource(ts)
	case cfg.CredentialsFile != "":
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("gdrive needs credentials_file or client_secret_file with refresh_token")
	}

	service, err := drive.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &GDriveStorage{
		service:  service,
		folderID: cfg.FolderID,
	}, nil
}

// LoadDriveOAuthConfig reads a Google client_secret.json limited to files
// created by this app.
func LoadDriveOAuthConfig(clientSecretFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(clientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret: %w", err)
	}

	cfg, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret: %w", err)
	}
	return cfg, nil
}

func (g *GDriveStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileMetadata := &drive.File{
		Name:    remoteName,
		Parents: []string{g.folderID},
	}

	_, err = g.service.Files.Create(fileMetadata).
		Media(file).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to upload to gdrive: %w", err)
	}

	return nil
}

func (g *GDriveStorage) Delete(ctx context.Context, remoteName string) error {
	files, err := g.find(ctx, fmt.Sprintf("'%s' in parents and name='%s' and trashed=false",
		escapeQuery(g.folderID), escapeQuery(remoteName)))
	if err != nil {
		return fmt.Errorf("failed to find file: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("file not found: %s", remoteName)
	}

	for _, f := range files {
		if err := g.service.Files.Delete(f.Id).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to delete file: %w", err)
		}
	}

	return nil
}

func (g *GDriveStorage) GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error) {
	files, err := g.find(ctx, fmt.Sprintf("'%s' in parents and trashed=false and createdTime < '%s'",
		escapeQuery(g.folderID), cutoffTime.UTC().Format(time.RFC3339)))
	if err != nil {
		return nil, fmt.Errorf("failed to list old files: %w", err)
	}
	return names(files), nil
}

func (g *GDriveStorage) find(ctx context.Context, query string) ([]*drive.File, error) {
	var files []*drive.File
	err := g.service.Files.List().
		Q(query).
		Fields("nextPageToken, files(id, name, createdTime)").
		Pages(ctx, func(page *drive.FileList) error {
			files = append(files, page.Files...)
			return nil
		})
	return files, err
}

func names(files []*drive.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
