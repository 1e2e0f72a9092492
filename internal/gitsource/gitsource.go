// Package gitsource keeps local checkouts of git card sources up to date.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/conorfennell/zeitstrahl/internal/logger"
)

// Sync clones the repository at url into localPath, or pulls the latest
// changes when localPath already holds a checkout.
func Sync(ctx context.Context, log *logger.Logger, url, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Info("Cloning repository", "url", url, "path", localPath)
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:   url,
			Depth: 1,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
		log.Debug("Clone successful", "path", localPath)
		return nil

	case err != nil:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	log.Info("Pulling repository", "path", localPath)
	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
	}
	err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
	}
	log.Debug("Pull finished", "path", localPath, "up_to_date", err != nil)
	return nil
}

// LocalPath maps a repository URL to its checkout directory below baseDir,
// e.g. https://github.com/a/b.git and git@github.com:a/b.git both map to
// baseDir/github.com/a/b.
func LocalPath(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http" || parsed.Scheme == "ssh") && parsed.Host != "" {
		return join(baseDir, parsed.Hostname(), parsed.Path)
	}

	// scp-like syntax: user@host:path
	if at := strings.Index(repoURL, "@"); at >= 0 {
		host, path, ok := strings.Cut(repoURL[at+1:], ":")
		if ok && host != "" {
			return join(baseDir, host, path)
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}

// IsURL reports whether path names a remote repository rather than a
// local directory.
func IsURL(path string) bool {
	_, err := LocalPath("", path)
	return err == nil
}

func join(baseDir, host, repoPath string) (string, error) {
	repoPath = strings.Trim(strings.TrimSuffix(repoPath, ".git"), "/")
	if repoPath == "" {
		return "", fmt.Errorf("git URL without repository path on %s", host)
	}
	cleaned := filepath.Join(baseDir, host, filepath.FromSlash(repoPath))
	if rel, err := filepath.Rel(baseDir, cleaned); err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("git URL escapes the repository directory: %s/%s", host, repoPath)
	}
	return cleaned, nil
}
