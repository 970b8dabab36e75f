package deployment

import "fmt"

// LogLevel tags a simulated log line
type LogLevel string

const (
	LevelInfo    LogLevel = "INFO"
	LevelSuccess LogLevel = "SUCCESS"
	LevelError   LogLevel = "ERROR"
	LevelFailed  LogLevel = "FAILED"
)

// LogLine is one line of the simulated deployment log
type LogLine struct {
	Level LogLevel `json:"level"`
	Text  string   `json:"text"`
}

// String renders the line the way the details panel shows it
func (l LogLine) String() string {
	return fmt.Sprintf("[%s] %s", l.Level, l.Text)
}

// LogLines returns the simulated log for the record's status
func (r Record) LogLines() []LogLine {
	info := func(text string) LogLine { return LogLine{Level: LevelInfo, Text: text} }

	switch r.Status {
	case StatusSuccess:
		return []LogLine{
			info("Starting deployment process..."),
			info("Pulling latest changes from repository"),
			info("Installing dependencies..."),
			info("Running build process..."),
			info("Optimizing assets..."),
			info("Running tests..."),
			info("Tests completed successfully"),
			info(fmt.Sprintf("Deploying to %s...", r.Environment.Label())),
			{Level: LevelSuccess, Text: "Deployment completed successfully!"},
			info("Cleaning up temporary files..."),
			info(fmt.Sprintf("Deployment process finished in %s", r.Duration)),
		}
	case StatusInProgress:
		return []LogLine{
			info("Starting deployment process..."),
			info("Pulling latest changes from repository"),
			info("Installing dependencies..."),
			info("Running build process..."),
			info("Build in progress..."),
		}
	case StatusFailed:
		return []LogLine{
			info("Starting deployment process..."),
			info("Pulling latest changes from repository"),
			info("Installing dependencies..."),
			info("Running build process..."),
			{Level: LevelError, Text: "Build failed: Syntax error in module"},
			{Level: LevelError, Text: "Cannot resolve dependency 'react-chartjs'"},
			{Level: LevelFailed, Text: fmt.Sprintf("Deployment failed after %s", r.Duration)},
		}
	default:
		return []LogLine{info("No log available for this deployment status")}
	}
}

// Actions returns the action buttons offered in the details panel
func (r Record) Actions() []string {
	actions := []string{"View Full Logs"}
	if r.Status == StatusFailed {
		actions = append(actions, "Retry Deployment")
	}
	return append(actions, "Compare with Previous")
}
