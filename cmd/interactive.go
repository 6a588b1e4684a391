package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/tara-vision/codekt/internal/submission"
)

const (
	choiceArchive    = "Upload a ZIP archive"
	choiceDirectory  = "Pack and upload a local directory"
	choiceRepository = "Analyze a Git repository"
)

// runInteractive walks the user through a submission and opens the
// project view. A failed submission can be retried with new input.
func (a *app) runInteractive(ctx context.Context) error {
	for {
		p, cleanup, err := a.promptPayload()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			if !errors.Is(err, submission.ErrInvalidInput) {
				return err
			}
			a.printError(err)
			if !confirm("Try again") {
				return nil
			}
			continue
		}

		id, err := a.submit(ctx, p)
		cleanup()
		if err != nil {
			a.printError(err)
			if !confirm("Try again") {
				return ErrReported
			}
			continue
		}

		fmt.Fprintln(a.out, a.renderer.Submitted(id))
		return a.runView(ctx, id)
	}
}

func (a *app) promptPayload() (submission.Payload, func(), error) {
	noop := func() {}

	method, err := selectOne("How do you want to submit the codebase?", []string{choiceArchive, choiceDirectory, choiceRepository})
	if err != nil {
		return submission.Payload{}, noop, err
	}

	var f analyzeFlags
	switch method {
	case choiceArchive:
		wd, _ := os.Getwd()
		if f.archive, err = selectArchive(wd); err != nil {
			return submission.Payload{}, noop, err
		}
	case choiceDirectory:
		if f.dir, err = promptText("Directory", ".", nil); err != nil {
			return submission.Payload{}, noop, err
		}
	default:
		if f.repo, err = promptText("Repository URL or local checkout", "", validateLocator); err != nil {
			return submission.Payload{}, noop, err
		}
		if f.branch, err = promptText("Branch (empty for the checkout's branch or "+submission.DefaultBranch+")", "", nil); err != nil {
			return submission.Payload{}, noop, err
		}
	}

	if f.role, err = selectRole(a.cfg.Role); err != nil {
		return submission.Payload{}, noop, err
	}

	if f.repo != "" {
		f = a.repositoryInput(f.repo, f.branch, f.role)
	} else {
		f.branch = a.cfg.Branch
	}
	return a.buildPayload(f)
}

// repositoryInput builds one attempt's repository input. An empty branch
// falls back to the checkout's branch or the configured default; the config
// itself is never changed.
func (a *app) repositoryInput(locator, branch string, role submission.Role) analyzeFlags {
	f := analyzeFlags{repo: locator, role: role, branch: a.cfg.Branch}
	if branch != "" {
		f.branch, f.branchSet = branch, true
	}
	return f
}

func validateLocator(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("repository URL is required")
	}
	return nil
}

func selectOne(label string, items []string) (string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
	}
	_, result, err := prompt.Run()
	return result, err
}

// selectRole asks for the documentation role, starting at current
func selectRole(current submission.Role) (submission.Role, error) {
	names := make([]string, len(submission.Roles))
	cursor := 0
	for i, r := range submission.Roles {
		names[i] = r.DisplayName()
		if r == current {
			cursor = i
		}
	}

	prompt := promptui.Select{
		Label:     "Which role should the documentation target?",
		Items:     names,
		CursorPos: cursor,
	}
	i, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return submission.Roles[i], nil
}

func promptText(label, def string, validate promptui.ValidateFunc) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  def,
		Validate: validate,
	}
	result, err := prompt.Run()
	return strings.TrimSpace(result), err
}

func confirm(label string) bool {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	return err == nil
}

// findArchives returns the .zip files under dir, relative to dir. Hidden
// entries and dependency directories are skipped.
func findArchives(dir string) ([]string, error) {
	var archives []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		base := d.Name()
		if path != dir && strings.HasPrefix(base, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if submission.SkipDir(base) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.EqualFold(filepath.Ext(base), submission.ArchiveExtension) {
			rel, _ := filepath.Rel(dir, path)
			archives = append(archives, rel)
		}
		return nil
	})
	return archives, err
}

// selectArchive shows a searchable picker of the archives under dir. With
// no archives found it asks for a path instead.
func selectArchive(dir string) (string, error) {
	archives, err := findArchives(dir)
	if err != nil {
		return "", fmt.Errorf("failed to list archives: %w", err)
	}
	if len(archives) == 0 {
		return promptText("Path to a .zip archive", "", nil)
	}

	searcher := func(input string, index int) bool {
		return strings.Contains(strings.ToLower(archives[index]), strings.ToLower(input))
	}

	prompt := promptui.Select{
		Label:             "Select an archive",
		Items:             archives,
		Size:              15,
		Searcher:          searcher,
		StartInSearchMode: true,
		HideSelected:      true,
	}
	_, result, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, result), nil
}
