package analyze

import (
	"fmt"
	"strings"
	"time"

	"bdo-watch/patchwatch/internal/models"
)

// Maintenance posts get a short summary instead of the full report; the
// Korean terms cover the Korean board's recurring maintenance titles.
var maintenanceKeywords = []string{
	"maintenance", "server maintenance", "scheduled maintenance",
	"hotfix", "정기점검", "임시점검", "서버점검",
}

const maxAnalysisChars = 3000

func isMaintenance(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range maintenanceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func buildPrompt(item models.ScrapedItem) string {
	if isMaintenance(item.Title) {
		return fmt.Sprintf(`Please access and analyze the content from this URL: %s

PATCH INFORMATION:
- Title: %s
- Date: %s
- Source: %s

This appears to be a maintenance update. Please access the URL and provide a brief summary focusing on:
- Server downtime details
- Any critical fixes mentioned
- Impact on players

Keep the analysis concise for maintenance updates.
`, item.URL, item.Title, item.RawDate, item.Source)
	}

	return fmt.Sprintf(`Please access and analyze the Black Desert Online patch content from this URL: %s

PATCH INFORMATION:
- Title: %s
- Date: %s
- Source: %s

You are a senior Black Desert Online intelligence analyst. After accessing the URL, create an extremely detailed, comprehensive analysis report.

REQUIRED DETAILED ANALYSIS SECTIONS (Target: %d characters total):

1. **EXECUTIVE SUMMARY**
   - Overall significance and strategic implications
   - Key meta changes and their impact
   - Priority actions for competitive players

2. **EVENTS ANALYSIS**
   - New events starting (rewards, duration, requirements, strategies)
   - Ongoing events changes or extensions with specific details
   - Time-sensitive recommendations for players

3. **CLASS & CHARACTER CHANGES**
   - List each class with specific skill changes
   - Exact damage numbers, cooldown modifications, range adjustments
   - PvP and PvE impact analysis with before/after scenarios

4. **ITEMS & EQUIPMENT**
   - New items added (exact stats, acquisition methods, drop rates)
   - Item balance changes and enhancement system modifications
   - Market economy predictions and trading opportunities

5. **MONSTER ZONES & CONTENT**
   - New hunting zones with exact location and requirements
   - Monster spawn rate, behavior, and difficulty changes
   - Grinding efficiency calculations and silver/hour projections

6. **FIXES & TECHNICAL CHANGES**
   - Bug fixes with detailed explanation of what was broken
   - System performance improvements and their practical benefits

7. **NEW CONTENT & FEATURES**
   - Completely new systems with detailed mechanics explanation
   - Story content, quest additions, and reward analysis

8. **STRATEGIC INTELLIGENCE**
   - Competitive advantages for prepared players
   - Guild warfare tactical implications
   - Resource allocation optimization and investment priorities

9. **PLAYER ACTION ITEMS**
   - Immediate priorities categorized by player type
   - Daily/weekly routine adjustments for maximum efficiency

For each section, provide specific details, exact numbers where available, and strategic insights. Use bullet points and clear formatting. If any section does not exist in the patch, state that clearly.

Access the URL directly and analyze ALL content thoroughly.
`, item.URL, item.Title, item.RawDate, item.Source, maxAnalysisChars)
}

// FormatReport wraps the raw model output with the metadata header and
// footer stored in the report blob.
func FormatReport(item models.ScrapedItem, analysis, model string, generatedAt time.Time) string {
	divider := strings.Repeat("=", 60)

	header := fmt.Sprintf(`BLACK DESERT ONLINE - INTELLIGENCE REPORT
%s

PATCH INFORMATION:
- Title: %s
- Date: %s
- Source: %s
- Original URL: %s
- Analysis Generated: %s
- Report ID: %s
- AI Model: %s
- Analysis Length: %d characters

%s

`, divider, item.Title, item.RawDate, item.Source, item.URL,
		generatedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
		item.PatchID, model, len(analysis), divider)

	footer := fmt.Sprintf(`

%s
AI Analysis Model: %s
Analysis Method: Direct URL Processing
%s
`, divider, model, divider)

	return header + analysis + footer
}
