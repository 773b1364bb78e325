package analytics

import (
	"sort"

	"github.com/noah-isme/sma-score-analytics/internal/models"
)

// DefaultTopN is the leaderboard size returned alongside a student's own rank.
const DefaultTopN = 10

// RankOptions tunes ranking output.
type RankOptions struct {
	// TieAware gives equal totals a shared rank (1, 2, 2, 4). When false every
	// entry gets a distinct sequential rank and input order breaks ties.
	TieAware bool
}

// ComputeRankings groups scores by student and ranks students by total score.
// Roster order is the tie-break order; students on the roster without scores are
// ranked with zero totals. Students that only appear in scores are appended in
// first-seen order.
func ComputeRankings(roster []models.StudentRef, scores []models.ScoreRecord, opts RankOptions) []models.RankEntry {
	type tally struct {
		total float64
		count int
	}

	tallies := make(map[string]*tally, len(roster))
	order := make([]string, 0, len(roster))
	refs := make(map[string]models.StudentRef, len(roster))
	for _, student := range roster {
		if _, seen := tallies[student.StudentID]; seen {
			continue
		}
		tallies[student.StudentID] = &tally{}
		refs[student.StudentID] = student
		order = append(order, student.StudentID)
	}
	for _, score := range scores {
		t, ok := tallies[score.StudentID]
		if !ok {
			t = &tally{}
			tallies[score.StudentID] = t
			order = append(order, score.StudentID)
		}
		t.total += score.Score
		t.count++
	}

	entries := make([]models.RankEntry, 0, len(order))
	for _, id := range order {
		t := tallies[id]
		ref := refs[id]
		entry := models.RankEntry{
			StudentID:    id,
			StudentName:  ref.Name,
			StudentNo:    ref.StudentNo,
			TotalScore:   round(t.total, 1),
			SubjectCount: t.count,
		}
		if t.count > 0 {
			entry.AvgScore = round(t.total/float64(t.count), 1)
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})

	for i := range entries {
		entries[i].Rank = i + 1
		if opts.TieAware && i > 0 && entries[i].TotalScore == entries[i-1].TotalScore {
			entries[i].Rank = entries[i-1].Rank
		}
	}
	return entries
}

// StudentStanding picks one student's entry out of a ranking along with the top
// topN entries. MyRank is nil when the student is not part of the ranking.
func StudentStanding(entries []models.RankEntry, studentID string, topN int) models.StudentStanding {
	if topN <= 0 {
		topN = DefaultTopN
	}
	standing := models.StudentStanding{Rankings: []models.RankEntry{}}
	for i := range entries {
		if entries[i].StudentID == studentID {
			mine := entries[i]
			standing.MyRank = &mine
			break
		}
	}
	if len(entries) < topN {
		topN = len(entries)
	}
	standing.Rankings = append(standing.Rankings, entries[:topN]...)
	return standing
}
