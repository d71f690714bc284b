package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/shizuku/internal/config"
	"github.com/kalambet/shizuku/internal/speech"
)

// --- journal ---

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Manage journal entries",
}

var journalAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Write a new journal entry",
	Long: `Write a new journal entry.

Examples:
  shizuku journal add --body "Long day at work" --emotion "tired but satisfied"
  shizuku journal add --body "Met a friend" --action "had coffee" --thought "should do this more often"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		body, _ := cmd.Flags().GetString("body")
		emotion, _ := cmd.Flags().GetString("emotion")
		action, _ := cmd.Flags().GetString("action")
		thought, _ := cmd.Flags().GetString("thought")
		dictate, _ := cmd.Flags().GetBool("dictate")

		if dictate {
			captured, err := dictateBody(cmd.Context())
			if err != nil {
				return err
			}
			body = captured
		}
		if body == "" {
			return fmt.Errorf("--body is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]string{
			"body":    body,
			"emotion": emotion,
			"action":  action,
			"thought": thought,
		}
		resp, err := client.post(cmd.Context(), "/entries", req)
		if err != nil {
			return err
		}

		var entry struct {
			ID string `json:"id"`
		}
		if err := decodeJSON(resp, &entry); err != nil {
			return err
		}

		printSuccess("Saved entry %s (analysis runs in the background)", entry.ID)
		return nil
	},
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/entries?limit=%d", limit))
		if err != nil {
			return err
		}

		var entries []struct {
			ID            string    `json:"id"`
			CreatedAt     time.Time `json:"created_at"`
			Body          string    `json:"body"`
			Summary       string    `json:"summary"`
			EmotionLabels []string  `json:"emotion_labels"`
			IsPlaceholder bool      `json:"is_placeholder"`
		}
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No entries yet.")
			return nil
		}

		for _, e := range entries {
			text := e.Summary
			if text == "" {
				text = e.Body
			}
			if len(text) > 80 {
				text = text[:80] + "..."
			}
			marker := ""
			if e.IsPlaceholder {
				marker = colorize(colorYellow, " [sample]")
			}
			labels := ""
			if len(e.EmotionLabels) > 0 {
				labels = "  " + colorize(colorCyan, strings.Join(e.EmotionLabels, ","))
			}
			fmt.Printf("%s  %s  %s%s%s\n",
				colorize(colorCyan, e.ID[:8]),
				e.CreatedAt.Format("2006-01-02"),
				text, labels, marker,
			)
		}
		return nil
	},
}

var journalShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single entry as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/entries/"+args[0])
		if err != nil {
			return err
		}

		var entry any
		if err := decodeJSON(resp, &entry); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	},
}

var journalDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/entries/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted entry %s", args[0])
		return nil
	},
}

// dictateBody captures the entry body through the platform speech input.
// Recording runs until the user presses enter.
func dictateBody(ctx context.Context) (string, error) {
	in := speech.Default()
	if !in.Available() {
		return "", fmt.Errorf("speech input is not available on this platform, use --body instead")
	}

	final := make(chan string, 1)
	err := in.Start(ctx,
		func(partial string) { fmt.Printf("\r%s", partial) },
		func(text string) { final <- text },
	)
	if err != nil {
		return "", fmt.Errorf("starting speech input: %w", err)
	}

	fmt.Println("Listening... press enter to finish.")
	bufio.NewReader(os.Stdin).ReadString('\n')

	if err := in.Stop(); err != nil {
		return "", fmt.Errorf("stopping speech input: %w", err)
	}

	select {
	case text := <-final:
		fmt.Println()
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func init() {
	journalAddCmd.Flags().String("body", "", "what happened")
	journalAddCmd.Flags().String("emotion", "", "how it felt")
	journalAddCmd.Flags().String("action", "", "what you did")
	journalAddCmd.Flags().String("thought", "", "what you thought")
	journalAddCmd.Flags().Bool("dictate", false, "capture the body by voice where supported")
	journalListCmd.Flags().Int("limit", 20, "maximum number of entries to list")
	journalCmd.AddCommand(journalAddCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalDeleteCmd)
}

// --- calendar ---

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show the month grid with journaled days",
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")
		month, _ := cmd.Flags().GetInt("month")

		now := time.Now()
		if year == 0 {
			year = now.Year()
		}
		if month == 0 {
			month = int(now.Month())
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/calendar?year=%d&month=%d", year, month))
		if err != nil {
			return err
		}

		var grid struct {
			Year  int `json:"year"`
			Month int `json:"month"`
			Cells []struct {
				Day     int    `json:"day"`
				InMonth bool   `json:"in_month"`
				IsToday bool   `json:"is_today"`
				EntryID string `json:"entry_id"`
			} `json:"cells"`
		}
		if err := decodeJSON(resp, &grid); err != nil {
			return err
		}

		fmt.Printf("%s\n", colorize(colorBold, fmt.Sprintf("%d-%02d", grid.Year, grid.Month)))
		fmt.Println(" Su  Mo  Tu  We  Th  Fr  Sa")
		for i, c := range grid.Cells {
			label := fmt.Sprintf("%3d", c.Day)
			switch {
			case !c.InMonth:
				label = colorize(colorYellow, label)
			case c.IsToday:
				label = colorize(colorBold, label)
			case c.EntryID != "":
				label = colorize(colorGreen, label)
			}
			fmt.Print(label, " ")
			if (i+1)%7 == 0 {
				fmt.Println()
			}
		}
		return nil
	},
}

func init() {
	calendarCmd.Flags().Int("year", 0, "year to show (default: current)")
	calendarCmd.Flags().Int("month", 0, "month to show, 1-12 (default: current)")
}

// --- trend ---

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show the cumulative mood trend for the last 30 days",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/trend")
		if err != nil {
			return err
		}

		var trend struct {
			Labels     []string `json:"labels"`
			Cumulative []int    `json:"cumulative"`
			Current    int      `json:"current"`
			Min        int      `json:"min"`
			Max        int      `json:"max"`
		}
		if err := decodeJSON(resp, &trend); err != nil {
			return err
		}

		for i, label := range trend.Labels {
			v := trend.Cumulative[i]
			bar := strings.Repeat("#", barLen(v, trend.Min, trend.Max))
			fmt.Printf("%6s  %4d  %s\n", label, v, colorize(colorCyan, bar))
		}
		fmt.Printf("\n%s %d\n", colorize(colorBold, "Current mood position:"), trend.Current)
		return nil
	},
}

// barLen maps a cumulative value into 0-40 columns over the display range.
func barLen(v, min, max int) int {
	if max <= min {
		return 0
	}
	n := (v - min) * 40 / (max - min)
	if n < 0 {
		return 0
	}
	return n
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run pattern analysis over recent entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Running analysis...")
		resp, err := client.post(cmd.Context(), "/analysis", map[string]any{})
		if err != nil {
			return err
		}

		var result struct {
			OverallInsight string   `json:"overall_insight"`
			MonthlyTheme   string   `json:"monthly_theme"`
			Keywords       []string `json:"keywords"`
			CoreValues     []string `json:"core_values"`
			TopStrengths   []string `json:"top_strengths"`
			MBTIType       string   `json:"mbti_type"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Printf("%s %s\n", colorize(colorBold, "Insight:"), result.OverallInsight)
		if result.MonthlyTheme != "" {
			fmt.Printf("%s %s\n", colorize(colorBold, "Theme:"), result.MonthlyTheme)
		}
		if len(result.Keywords) > 0 {
			fmt.Printf("%s %s\n", colorize(colorBold, "Keywords:"), strings.Join(result.Keywords, ", "))
		}
		if len(result.CoreValues) > 0 {
			fmt.Printf("%s %s\n", colorize(colorBold, "Values:"), strings.Join(result.CoreValues, ", "))
		}
		if len(result.TopStrengths) > 0 {
			fmt.Printf("%s %s\n", colorize(colorBold, "Strengths:"), strings.Join(result.TopStrengths, ", "))
		}
		if result.MBTIType != "" {
			fmt.Printf("%s %s\n", colorize(colorBold, "MBTI:"), result.MBTIType)
		}
		return nil
	},
}

// --- report ---

var reportCmd = &cobra.Command{
	Use:   "report <type>",
	Short: "Generate a detailed report from the latest analysis",
	Long: `Generate a detailed report from the latest analysis.

Types: MONTHLY_THEME, BIG_FIVE, MBTI, STRENGTHS_VALUES, KEYWORDS, SENTIMENT_TREND`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Generating report...")
		resp, err := client.post(cmd.Context(), "/analysis/report", map[string]string{"type": args[0]})
		if err != nil {
			return err
		}

		var result struct {
			Report string `json:"report"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Report)
		return nil
	},
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk with Shizuku, the mindfulness companion",
	Long: `Talk with Shizuku, the mindfulness companion.

Starts an interactive session. Type your message and press enter;
an empty line or Ctrl-D ends the conversation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		type message struct {
			Role string `json:"role"`
			Text string `json:"text"`
		}
		var history []message

		scanner := bufio.NewScanner(os.Stdin)
		fmt.Println("Talking with Shizuku. Empty line ends the conversation.")
		for {
			fmt.Print(colorize(colorBold, "you> "))
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				break
			}

			resp, err := client.post(cmd.Context(), "/chat", map[string]any{
				"history": history,
				"message": line,
			})
			if err != nil {
				return err
			}

			var reply struct {
				Reply string `json:"reply"`
			}
			if err := decodeJSON(resp, &reply); err != nil {
				return err
			}

			fmt.Printf("%s %s\n", colorize(colorCyan, "shizuku>"), reply.Reply)
			history = append(history, message{Role: "user", Text: line})
			history = append(history, message{Role: "model", Text: reply.Reply})
		}
		return scanner.Err()
	},
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage user profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}

		var profile any
		if err := decodeJSON(resp, &profile); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a profile field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{key: value}
		resp, err := client.patch(cmd.Context(), "/profile", body)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open profile JSON in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}

		var profile any
		if err := decodeJSON(resp, &profile); err != nil {
			return err
		}

		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return err
		}

		tmpFile, err := os.CreateTemp("", "shizuku-profile-*.json")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		tmpPath := tmpFile.Name()
		defer os.Remove(tmpPath)

		if _, err := tmpFile.Write(data); err != nil {
			tmpFile.Close()
			return err
		}
		tmpFile.Close()

		editorCmd := exec.Command(editor, tmpPath)
		editorCmd.Stdin = os.Stdin
		editorCmd.Stdout = os.Stdout
		editorCmd.Stderr = os.Stderr
		if err := editorCmd.Run(); err != nil {
			return fmt.Errorf("editor exited with error: %w", err)
		}

		edited, err := os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		var fields map[string]any
		if err := json.Unmarshal(edited, &fields); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}

		patchResp, err := client.patch(cmd.Context(), "/profile", fields)
		if err != nil {
			return err
		}
		defer patchResp.Body.Close()

		if patchResp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", patchResp.StatusCode)
		}

		printSuccess("Profile updated")
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileEditCmd)
}

// --- data ---

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Export or purge stored data",
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all journal entries as JSONL",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var writer *os.File
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			writer = f
		} else {
			writer = os.Stdout
		}

		enc := json.NewEncoder(writer)

		offset := 0
		for {
			resp, err := client.get(cmd.Context(), fmt.Sprintf("/entries?limit=100&offset=%d", offset))
			if err != nil {
				return err
			}
			var entries []map[string]any
			if err := decodeJSON(resp, &entries); err != nil {
				return err
			}
			if len(entries) == 0 {
				break
			}
			for _, e := range entries {
				// Sample data is not the user's and has no place in an export.
				if p, ok := e["is_placeholder"].(bool); ok && p {
					continue
				}
				record := map[string]any{"type": "entry", "data": e}
				enc.Encode(record)
			}
			offset += len(entries)
		}

		if output != "" {
			printSuccess("Data exported to %s", output)
		}
		return nil
	},
}

var dataPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete ALL journal entries. Use --confirm to proceed.")
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Deleting entries...")
		n, err := purgeAllEntries(cmd.Context(), client)
		if err != nil {
			return err
		}

		printSuccess("Purged %d entries", n)
		return nil
	},
}

// purgeAllEntries deletes entries page by page and returns how many were
// removed. A pass that deletes nothing aborts with an error so persistent
// server failures cannot spin the loop forever.
func purgeAllEntries(ctx context.Context, client *apiClient) (int, error) {
	total := 0
	for {
		resp, err := client.get(ctx, "/entries?limit=100")
		if err != nil {
			return total, err
		}
		var entries []struct {
			ID string `json:"id"`
		}
		if err := decodeJSON(resp, &entries); err != nil {
			return total, err
		}
		if len(entries) == 0 {
			return total, nil
		}

		deleted := 0
		for _, e := range entries {
			resp, err := client.delete(ctx, "/entries/"+e.ID)
			if err != nil {
				printError("Failed to delete entry %s: %v", e.ID, err)
				continue
			}
			resp.Body.Close()
			if resp.StatusCode >= 400 {
				printError("Failed to delete entry %s: server returned %d", e.ID, resp.StatusCode)
				continue
			}
			deleted++
		}
		total += deleted
		if deleted == 0 {
			return total, fmt.Errorf("no entries could be deleted, aborting purge")
		}
	}
}

func init() {
	dataExportCmd.Flags().String("output", "", "output file path (default: stdout)")
	dataPurgeCmd.Flags().Bool("confirm", false, "confirm data purge")
	dataCmd.AddCommand(dataExportCmd)
	dataCmd.AddCommand(dataPurgeCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
