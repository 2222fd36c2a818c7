package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/rs/zerolog"
)

// OpeningPhrases signal that a program page is accepting applications.
var OpeningPhrases = []string{
	"applications open",
	"register now",
	"sign up",
	"enrollment open",
	"join now",
	"apply now",
}

// ProgramFinding reports an opening phrase found on a tracked program page.
type ProgramFinding struct {
	Program    models.TrackedProgram
	URL        string
	Phrase     string
	DetectedAt time.Time
}

// CheckProgramWebsites fetches the first search URL of each high-priority
// program and reports pages that contain an opening phrase. Fetch errors are
// logged per program and never stop the scan.
func CheckProgramWebsites(ctx context.Context, fetcher Fetcher, programs []models.TrackedProgram, logger zerolog.Logger) []ProgramFinding {
	var findings []ProgramFinding

	for _, program := range programs {
		if program.Priority != models.PriorityHigh || len(program.SearchURLs) == 0 {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		url := program.SearchURLs[0]
		doc, err := fetcher.Fetch(ctx, url)
		if err != nil {
			logger.Warn().Err(err).
				Str("program_id", program.ID).
				Str("url", url).
				Msg("program_search_error")
			continue
		}
		body, err := readBody(doc)
		if err != nil {
			logger.Warn().Err(err).Str("program_id", program.ID).Msg("program_search_error")
			continue
		}

		content := strings.ToLower(string(body))
		for _, phrase := range OpeningPhrases {
			if !strings.Contains(content, phrase) {
				continue
			}
			findings = append(findings, ProgramFinding{
				Program:    program,
				URL:        url,
				Phrase:     phrase,
				DetectedAt: time.Now().UTC(),
			})
			logger.Info().
				Str("program_id", program.ID).
				Str("url", url).
				Str("phrase", phrase).
				Msg("program_opening_detected")
			break
		}
	}

	return findings
}
