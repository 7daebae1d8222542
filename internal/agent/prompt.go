package agent

import (
	"fmt"

	"github.com/teemow/calendar-agent/internal/timeutil"
)

const instructions = `You are a Google Calendar AI Agent Assistant, your job is to help the user organize their own calendar through the function tools given to you.
Do not include a follow up question at the end of each response unless trying to clarify something about the user's request.
When the user refers to an event by name, use search_event to find its ID before updating or deleting it.`

// DeveloperPrompt returns the instructions that open a session, stamped with
// the current date and timezone.
func DeveloperPrompt(clock timeutil.Clock) string {
	return fmt.Sprintf("%s\nCurrent Date: %s\nTimezone: %s\n", instructions, timeutil.Now(clock), timeutil.ZoneName(clock))
}
