package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/rb14v1/Contrackt/internal/alerts"
	"github.com/rb14v1/Contrackt/internal/api"
	"github.com/rb14v1/Contrackt/internal/chat"
	"github.com/rb14v1/Contrackt/internal/config"
	"github.com/rb14v1/Contrackt/internal/domain"
	"github.com/rb14v1/Contrackt/internal/history"
	"github.com/rb14v1/Contrackt/internal/picker"
	"github.com/rb14v1/Contrackt/internal/storage"
	"github.com/rb14v1/Contrackt/internal/transcript"
	"github.com/rb14v1/Contrackt/internal/uploader"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	useStream  = flag.Bool("stream", false, "Answer questions over the streaming chat endpoint")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize local storage (the conversation store's persistence port)
	var st storage.Store
	if cfg.Storage.InMemory {
		st = storage.NewMemory()
	} else {
		st, err = storage.NewSQLite(cfg.Storage.Path)
		if err != nil {
			logger.Fatal("Failed to initialize local storage", zap.Error(err))
		}
	}
	defer st.Close()

	hist := history.New(st, logger, cfg.History.MaxEntries, cfg.History.SaveDebounce)
	hist.Initialize()
	defer hist.Close()

	client := api.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
	controller := chat.NewController(hist, client, logger)
	up := uploader.New(client, logger,
		uploader.WithLimits(cfg.Upload.MaxFiles, cfg.Upload.AcceptedExt),
		uploader.WithDelays(cfg.Upload.ToastTimeout, cfg.Upload.StatusClearDelay),
	)
	defer up.Close()

	poller := alerts.NewPoller(client, logger, cfg.Alerts.PollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First fetch is synchronous so the welcome line has real counts; the
	// poller keeps the snapshot fresh for the rest of the session.
	poller.Refresh(ctx)
	go poller.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
		hist.Close()
		logger.Info("Session ended")
		os.Exit(0)
	}()

	printBanner()
	alertCount, reminderCount := poller.Counts()
	fmt.Printf("Connected to %s | %d urgent alerts, %d reminders\n", cfg.Backend.BaseURL, alertCount, reminderCount)
	fmt.Println(`Type a question to ask about your contracts, or "/help" for commands.`)

	a := &app{
		logger:     logger,
		hist:       hist,
		client:     client,
		controller: controller,
		uploader:   up,
		poller:     poller,
		stream:     *useStream,
		out:        os.Stdout,
	}
	a.run(ctx, bufio.NewScanner(os.Stdin))

	cancel()
	logger.Info("Session ended")
}

type app struct {
	logger     *zap.Logger
	hist       *history.Store
	client     *api.Client
	controller *chat.Controller
	uploader   *uploader.Uploader
	poller     *alerts.Poller
	stream     bool
	out        *os.File

	// lastListing backs the numeric arguments of /doc and /open
	lastListing []domain.Document
	lastAlerts  *alerts.View
}

func (a *app) run(ctx context.Context, in *bufio.Scanner) {
	for {
		fmt.Fprint(a.out, "> ")
		if !in.Scan() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !a.dispatch(ctx, in, line) {
				return
			}
			continue
		}

		if a.stream {
			a.controller.StreamSend(ctx, line, func(chunk string) {
				fmt.Fprint(a.out, chunk)
			})
			fmt.Fprintln(a.out)
		} else {
			a.controller.Send(ctx, line)
		}
		a.printTranscriptTail()
	}
}

// dispatch handles one slash command; returning false ends the session
func (a *app) dispatch(ctx context.Context, in *bufio.Scanner, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return false
	case "/help":
		a.printHelp()
	case "/new":
		a.controller.ClearSelectionQuiet()
		a.hist.NewChat()
		fmt.Fprintln(a.out, "Started a new chat.")
	case "/history":
		a.printHistory()
	case "/load":
		a.loadChat(args)
	case "/pin":
		a.withConversation(args, a.hist.PinChat)
	case "/unpin":
		a.withConversation(args, a.hist.UnpinChat)
	case "/delete":
		a.withConversation(args, a.hist.DeleteChat)
	case "/show":
		fmt.Fprint(a.out, transcript.Render(a.hist.Current(), a.controller.Typing()))
	case "/copy":
		a.copyMessage(args)
	case "/category":
		a.setCategory(args)
	case "/categories":
		a.printCategories(ctx)
	case "/contracts":
		a.listContracts(ctx, args)
	case "/select":
		a.runPicker(ctx, in)
	case "/clear-selection":
		a.controller.ClearSelection()
		a.printTranscriptTail()
	case "/summarize":
		a.controller.SummarizeSelected(ctx, a.controller.ScopedDocuments())
		a.printTranscriptTail()
	case "/doc":
		a.runDocumentChat(ctx, in, args)
	case "/attach":
		a.attach(args)
	case "/files":
		a.printAttachments()
	case "/tag":
		a.tagAttachment(args)
	case "/detach":
		a.detachAttachment(args)
	case "/send-files":
		a.sendFiles(ctx)
	case "/upload":
		a.attach(args)
		a.sendFiles(ctx)
	case "/alerts":
		a.showAlerts(true)
	case "/reminders":
		a.showAlerts(false)
	case "/open":
		a.openAlertDocument(args)
	default:
		fmt.Fprintf(a.out, "Unknown command %s; try /help\n", cmd)
	}
	return true
}

func (a *app) printHelp() {
	fmt.Fprintln(a.out, `Commands:
  /new                     start a new chat (current one is saved first)
  /history                 list saved conversations
  /load <n>                switch to a saved conversation
  /pin <n> | /unpin <n>    pin or unpin a conversation
  /delete <n>              delete a conversation
  /show                    reprint the current transcript
  /copy <n>                print message n as plain text
  /category <key>          set the question category filter
  /categories              list categories known to the backend
  /contracts <key>         list contracts in a category
  /select                  choose documents for scoped search
  /clear-selection         search all documents again
  /summarize               summarize the selected documents
  /doc <n>                 chat about one listed document
  /attach <file>...        queue PDFs for upload
  /files                   show the upload queue
  /tag <n> <category>      retag a queued file (nda, employee_contract, loan_agreement)
  /detach <n>              remove a queued file
  /send-files              upload the queue
  /upload <file>...        attach and upload in one step
  /alerts | /reminders     show urgent alerts or reminders
  /open <n>                open a shown alert's document
  /quit                    exit`)
}

func (a *app) printTranscriptTail() {
	messages := a.hist.Current()
	const tail = 2
	start := len(messages) - tail
	if start < 0 {
		start = 0
	}
	fmt.Fprint(a.out, transcript.Render(messages[start:], a.controller.Typing()))
}

func (a *app) printHistory() {
	historyList := a.hist.History()
	if len(historyList) == 0 {
		fmt.Fprintln(a.out, "No saved conversations.")
		return
	}

	pinnedIDs := make(map[string]bool)
	for _, p := range a.hist.Pinned() {
		pinnedIDs[p.ID] = true
	}

	for i, c := range historyList {
		marker := " "
		if c.ID == a.hist.CurrentID() {
			marker = "*"
		}
		pin := ""
		if pinnedIDs[c.ID] {
			pin = " [pinned]"
		}
		fmt.Fprintf(a.out, "%s %2d. %s%s\n", marker, i+1, c.Title, pin)
	}
}

func (a *app) withConversation(args []string, fn func(id string)) {
	id, ok := a.resolveConversation(args)
	if !ok {
		return
	}
	fn(id)
	a.printHistory()
}

func (a *app) loadChat(args []string) {
	id, ok := a.resolveConversation(args)
	if !ok {
		return
	}
	a.hist.LoadConversation(id)
	fmt.Fprint(a.out, transcript.Render(a.hist.Current(), false))
}

func (a *app) resolveConversation(args []string) (string, bool) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Expected a conversation number from /history.")
		return "", false
	}
	historyList := a.hist.History()
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(historyList) {
		fmt.Fprintln(a.out, "No such conversation.")
		return "", false
	}
	return historyList[n-1].ID, true
}

func (a *app) copyMessage(args []string) {
	messages := a.hist.Current()
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Expected a message number.")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(messages) {
		fmt.Fprintln(a.out, "No such message.")
		return
	}
	fmt.Fprintln(a.out, transcript.Flatten(messages[n-1]))
}

func (a *app) setCategory(args []string) {
	if len(args) != 1 {
		for _, c := range domain.ContractCategories() {
			fmt.Fprintf(a.out, "  %-22s %s\n", c.Key, c.Label)
		}
		return
	}
	a.controller.SetCategory(args[0])
	fmt.Fprintf(a.out, "Category filter set to %s.\n", args[0])
}

func (a *app) printCategories(ctx context.Context) {
	categories, err := a.client.Categories(ctx)
	if err != nil {
		a.logger.Warn("failed to fetch categories", zap.Error(err))
		fmt.Fprintln(a.out, "Could not fetch categories from the backend.")
		return
	}
	for _, c := range categories {
		fmt.Fprintln(a.out, "  "+c)
	}
}

func (a *app) listContracts(ctx context.Context, args []string) {
	category := domain.DefaultCategoryKey
	if len(args) == 1 {
		category = args[0]
	}

	fmt.Fprintln(a.out, "Loading contracts...")
	docs, err := a.client.Contracts(ctx, category)
	if err != nil {
		a.logger.Warn("failed to fetch contracts", zap.Error(err))
		fmt.Fprintln(a.out, "Could not fetch contracts from the backend.")
		return
	}
	if len(docs) == 0 {
		fmt.Fprintln(a.out, "No contracts found")
		return
	}

	a.lastListing = docs
	a.printDocuments(docs, nil)
}

func (a *app) printDocuments(docs []domain.Document, selected func(domain.Document) bool) {
	fmt.Fprintf(a.out, "  %-3s %-40s %-22s %s\n", "#", "NAME", "CATEGORY", "DATE")
	for i, doc := range docs {
		mark := " "
		if selected != nil && selected(doc) {
			mark = "x"
		}
		date := doc.Date
		if date == "" {
			date = "N/A"
		}
		fmt.Fprintf(a.out, "[%s] %-3d %-40s %-22s %s\n", mark, i+1, doc.DisplayName(), doc.Category, date)
	}
}

// runPicker drives the selection dialog: category filter, checkbox toggles,
// confirm or cancel. Closing the dialog cancels its in-flight fetch.
func (a *app) runPicker(ctx context.Context, in *bufio.Scanner) {
	pickerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := picker.New(a.client, a.logger)
	fmt.Fprintln(a.out, "Loading contracts...")
	p.Open(pickerCtx)
	a.printPicker(p)

	for {
		fmt.Fprint(a.out, "select> ")
		if !in.Scan() {
			return
		}
		fields := strings.Fields(strings.TrimSpace(in.Text()))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "cat":
			if len(fields) != 2 {
				fmt.Fprintln(a.out, "Usage: cat <key>")
				continue
			}
			fmt.Fprintln(a.out, "Loading contracts...")
			p.SetCategory(pickerCtx, fields[1])
			a.printPicker(p)
		case "toggle":
			contracts := p.Contracts()
			if len(fields) != 2 {
				fmt.Fprintln(a.out, "Usage: toggle <n>")
				continue
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 1 || n > len(contracts) {
				fmt.Fprintln(a.out, "No such contract.")
				continue
			}
			p.Toggle(contracts[n-1])
			a.printPicker(p)
		case "confirm":
			selected := p.Confirm()
			if len(selected) == 0 {
				fmt.Fprintln(a.out, "Nothing selected.")
				return
			}
			a.lastListing = selected
			a.controller.SelectDocuments(selected)
			a.printTranscriptTail()
			return
		case "cancel":
			p.Cancel()
			return
		default:
			fmt.Fprintln(a.out, "Commands: cat <key>, toggle <n>, confirm, cancel")
		}
	}
}

func (a *app) printPicker(p *picker.Picker) {
	switch p.State() {
	case picker.StateLoading:
		fmt.Fprintln(a.out, "Loading contracts...")
	case picker.StateEmpty:
		fmt.Fprintln(a.out, "No contracts found")
	default:
		a.printDocuments(p.Contracts(), p.IsSelected)
		fmt.Fprintf(a.out, "Confirm (%d selected) with: confirm\n", len(p.Selected()))
	}
}

// runDocumentChat is the one-document follow-up thread
func (a *app) runDocumentChat(ctx context.Context, in *bufio.Scanner, args []string) {
	if len(a.lastListing) == 0 {
		fmt.Fprintln(a.out, "List contracts first with /contracts or /select.")
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: /doc <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(a.lastListing) {
		fmt.Fprintln(a.out, "No such document.")
		return
	}

	doc := a.lastListing[n-1]
	session := chat.NewDocumentSession(a.controller.Backend(), doc)
	fmt.Fprintf(a.out, "Chatting about %s. Type /back to return.\n", doc.DisplayName())

	for {
		fmt.Fprint(a.out, "doc> ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "/back" || line == "/quit" {
			return
		}
		session.Send(ctx, line)
		messages := session.Messages()
		if len(messages) > 0 {
			fmt.Fprint(a.out, transcript.Render(messages[len(messages)-1:], false))
		}
	}
}

func (a *app) attach(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: /attach <file.pdf>...")
		return
	}
	if err := a.uploader.Add(args...); err != nil {
		fmt.Fprintln(a.out, a.uploader.Status())
		return
	}
	a.printAttachments()
}

func (a *app) printAttachments() {
	attachments := a.uploader.Attachments()
	if len(attachments) == 0 {
		fmt.Fprintln(a.out, "No files queued.")
		return
	}
	for i, att := range attachments {
		fmt.Fprintf(a.out, "  %d. %s [%s]\n", i+1, att.Name, att.Category)
	}
	if status := a.uploader.Status(); status != "" {
		fmt.Fprintln(a.out, status)
	}
}

func (a *app) tagAttachment(args []string) {
	attachments := a.uploader.Attachments()
	if len(args) != 2 {
		fmt.Fprintf(a.out, "Usage: /tag <n> <%s>\n", strings.Join(domain.UploadCategories(), "|"))
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(attachments) {
		fmt.Fprintln(a.out, "No such file.")
		return
	}
	if err := a.uploader.SetCategory(attachments[n-1].ID, args[1]); err != nil {
		fmt.Fprintf(a.out, "Invalid category! Please use: %s\n", strings.Join(domain.UploadCategories(), ", "))
		return
	}
	a.printAttachments()
}

func (a *app) detachAttachment(args []string) {
	attachments := a.uploader.Attachments()
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: /detach <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(attachments) {
		fmt.Fprintln(a.out, "No such file.")
		return
	}
	a.uploader.Remove(attachments[n-1].ID)
	a.printAttachments()
}

func (a *app) sendFiles(ctx context.Context) {
	attachments := a.uploader.Attachments()
	if len(attachments) == 0 {
		fmt.Fprintln(a.out, "No files queued.")
		return
	}

	for _, res := range a.uploader.UploadAll(ctx) {
		if res.Err != nil {
			continue
		}
		a.controller.NoteUpload(res.Attachment.Name, res.Attachment.Category, res.Response.QdrantID)
	}
	status := a.uploader.Status()
	fmt.Fprintln(a.out, status)
	if strings.HasPrefix(status, "Upload failed: ") {
		a.controller.NoteUploadFailure(strings.TrimPrefix(status, "Upload failed: "))
	} else if strings.HasSuffix(status, "files failed.") {
		a.controller.NoteUploadFailure(status)
	}
}

func (a *app) showAlerts(urgent bool) {
	alertList, reminderList := a.poller.Snapshot()
	items := reminderList
	title := "Reminders (21-60 Days)"
	empty := "No reminders to display (21-60 days)."
	if urgent {
		items = alertList
		title = "Urgent Alerts (0-20 Days)"
		empty = "No urgent alerts to display (0-20 days)."
	}

	fmt.Fprintf(a.out, "%s — %d item(s)\n", title, len(items))
	if len(items) == 0 {
		fmt.Fprintln(a.out, empty)
		return
	}

	a.lastAlerts = alerts.NewView(items, a.logger)
	for i, item := range items {
		fmt.Fprintf(a.out, "  %d. [%s] %s — %d days left (Due: %s)\n",
			i+1, alerts.FormatType(item.Type), item.Title, item.DaysLeft, alerts.DueDate(item.Date))
	}
	if detail, ok := a.lastAlerts.Detail(); ok {
		fmt.Fprintln(a.out, "Details:")
		for _, line := range alerts.DetailLines(detail) {
			fmt.Fprintln(a.out, "  "+line)
		}
	}
}

func (a *app) openAlertDocument(args []string) {
	if a.lastAlerts == nil {
		fmt.Fprintln(a.out, "Show alerts or reminders first.")
		return
	}
	items := a.lastAlerts.Items()
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: /open <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(items) {
		fmt.Fprintln(a.out, "No such item.")
		return
	}
	if !a.lastAlerts.OpenDocument(items[n-1]) {
		fmt.Fprintln(a.out, "Document URL not available.")
	}
}

func printBanner() {
	banner := `
   ______            __                  __   __
  / ____/___  ____  / /__________ ______/ /__/ /_
 / /   / __ \/ __ \/ __/ ___/ __ '/ ___/ //_/ __/
/ /___/ /_/ / / / / /_/ /  / /_/ / /__/ ,< / /_
\____/\____/_/ /_/\__/_/   \__,_/\___/_/|_|\__/
`
	fmt.Println(banner)
}
