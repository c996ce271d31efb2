package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/calebwray/shapepet/pkg/pet"
)

const (
	AppTitle        = "SHAPEPET"
	refreshInterval = 2 * time.Second
	logLimit        = 200
)

var titleCaser = cases.Title(language.English)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	pet          *PetResponse
	logViewport  viewport.Model
	metaViewport viewport.Model
	ready        bool
	width        int
	height       int
	err          error
	status       string
	logLines     []string

	// Start modal state
	showStartModal bool
	startChoice    int
	adopting       bool
	idInput        textinput.Model
	starting       bool

	// Shop modal state
	showShopModal  bool
	catalog        []pet.ItemDef
	selectedItem   int
	loadingCatalog bool

	// Quit confirmation state
	showQuitModal bool

	// SSE stream state
	eventChan chan SSEEvent
	sseCancel context.CancelFunc
}

type petMsg struct {
	pet *PetResponse
	err error
}

type petReadyMsg struct {
	pet *PetResponse
	err error
}

type battleMsg struct {
	move *BattleMove
	err  error
}

type catalogMsg struct {
	items []pet.ItemDef
	err   error
}

type sseEventMsg struct {
	event SSEEvent
}

type refreshTickMsg struct{}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")) // purple

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	barFilledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	barLowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ti := textinput.New()
	ti.Placeholder = "paste a pet ID..."
	ti.CharLimit = 36
	ti.Width = 40

	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		client:         client,
		logViewport:    logVp,
		metaViewport:   metaVp,
		idInput:        ti,
		showStartModal: true,
	}
}

func (m *ConsoleUI) appendLog(style lipgloss.Style, line string) {
	stamp := promptStyle.Render(time.Now().Format("15:04:05") + " ")
	m.logLines = append(m.logLines, stamp+style.Render(line))
	if len(m.logLines) > logLimit {
		m.logLines = m.logLines[len(m.logLines)-logLimit:]
	}
	m.writeLogContent()
}

// writeLogContent rebuilds the log viewport for the current width.
func (m *ConsoleUI) writeLogContent() {
	logWidth := m.logViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render(AppTitle) + "\n\n")
	content.WriteString("Keep your shape fed, rested and happy and it will evolve.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(logWidth-6, 1))) + "\n\n")

	for _, line := range m.logLines {
		content.WriteString(wordwrap.String(line, max(logWidth, 20)) + "\n")
	}

	if m.status != "" {
		content.WriteString("\n" + warnStyle.Render(m.status) + "\n")
	}

	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

func writeMetadata(p *PetResponse) string {
	s := p.State

	var content strings.Builder
	content.WriteString(titleStyle.Render("PET") + "\n\n")

	content.WriteString("Pet ID:\n")
	content.WriteString(p.ID[:8] + "...\n\n")

	form := titleCaser.String(string(s.Form))
	if s.Evolving {
		form += " (evolving...)"
	}
	if s.Frozen {
		form += " (frozen)"
	}
	content.WriteString("Form: " + form + "\n")
	content.WriteString(fmt.Sprintf("Age: %s\n", formatAge(s.Age)))
	content.WriteString(fmt.Sprintf("Coins: %d\n\n", s.Coins))

	content.WriteString(fmt.Sprintf("Fullness %s\n", renderBar(100-s.Hunger)))
	content.WriteString(fmt.Sprintf("Happy    %s\n", renderBar(s.Happiness)))
	content.WriteString(fmt.Sprintf("Energy   %s\n", renderBar(s.Energy)))
	content.WriteString(fmt.Sprintf("Health   %s\n\n", renderBar(s.Health)))

	content.WriteString("Training:\n")
	for _, a := range pet.Abilities() {
		prog := s.Training[a]
		if prog == nil {
			continue
		}
		content.WriteString(fmt.Sprintf("• %s: L%d (%.0f xp)\n", titleCaser.String(string(a)), prog.Level, prog.XP))
	}
	content.WriteString("\n")

	if s.InBattle && s.CurrentEnemy != nil {
		e := s.CurrentEnemy
		content.WriteString(titleStyle.Render("BATTLE") + "\n")
		content.WriteString(fmt.Sprintf("%s (L%d %s)\n", e.Name, e.Level, e.Type))
		content.WriteString(fmt.Sprintf("Enemy HP: %d/%d\n\n", e.HP, e.MaxHP))
	}

	if len(s.Inventory) > 0 {
		content.WriteString("Inventory:\n")
		defs := make([]pet.ItemDef, 0, len(s.Inventory))
		for id := range s.Inventory {
			if def, ok := pet.ItemByID(id); ok {
				defs = append(defs, def)
			}
		}
		sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
		for _, def := range defs {
			content.WriteString(fmt.Sprintf("• %s x%d\n", def.Name, s.Inventory[def.ID]))
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• f/p/s/h: Feed Play Sleep Heal\n")
	content.WriteString("• 1-4: Train ability\n")
	content.WriteString("• b/a/d/r: Battle moves\n")
	content.WriteString("• i: Shop\n")
	content.WriteString("• z: Freeze toggle\n")
	content.WriteString("• c: Copy pet ID\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

// renderBar draws a ten-segment gauge for a vital in [0,100].
func renderBar(value float64) string {
	const segments = 10
	filled := int(value / 100 * segments)
	if filled > segments {
		filled = segments
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", segments-filled)
	style := barFilledStyle
	if value < 25 {
		style = barLowStyle
	}
	return style.Render(bar) + fmt.Sprintf(" %3.0f", value)
}

func formatAge(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

func (m ConsoleUI) Init() tea.Cmd {
	return textinput.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	if m.showStartModal {
		return m.updateStartModal(msg)
	}

	if m.showShopModal {
		return m.updateShopModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.logViewport, vpCmd = m.logViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePanels()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case refreshTickMsg:
		return m, tea.Batch(m.refreshPet(), refreshTick())

	case petMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			m.writeLogContent()
		} else if msg.pet != nil {
			m.status = ""
			m.pet = msg.pet
			m.metaViewport.SetContent(writeMetadata(m.pet))
			m.writeLogContent()
		}

	case battleMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			m.writeLogContent()
		} else if msg.move != nil {
			m.status = ""
			m.pet = &PetResponse{ID: msg.move.ID, State: msg.move.State}
			m.metaViewport.SetContent(writeMetadata(m.pet))
			m.logBattleMove(msg.move)
		}

	case sseEventMsg:
		m.appendLog(eventStyle, describeEvent(msg.event))
		return m, m.waitForEvent()
	}

	m.logViewport, vpCmd = m.logViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

func (m *ConsoleUI) resizePanels() {
	if m.width == 0 || m.height == 0 {
		return
	}
	logWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - logWidth - 6

	m.logViewport.Width = logWidth - 2
	m.logViewport.Height = m.height - 5
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4

	m.ready = true
	m.writeLogContent()
	if m.pet != nil {
		m.metaViewport.SetContent(writeMetadata(m.pet))
	}
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.showQuitModal = true
		return m, nil
	}

	switch msg.String() {
	case "q":
		m.showQuitModal = true
		return m, nil
	case "f":
		return m, m.doAction("feed")
	case "p":
		return m, m.doAction("play")
	case "s":
		return m, m.doAction("sleep")
	case "h":
		return m, m.doAction("heal")
	case "z":
		if m.pet != nil && m.pet.State.Frozen {
			return m, m.doAction("unfreeze")
		}
		return m, m.doAction("freeze")
	case "1", "2", "3", "4":
		abilities := pet.Abilities()
		idx := int(msg.String()[0] - '1')
		return m, m.doTrain(abilities[idx])
	case "b":
		return m, m.doBattle("start")
	case "a":
		return m, m.doBattle("attack")
	case "d":
		return m, m.doBattle("defend")
	case "r":
		return m, m.doBattle("flee")
	case "i":
		m.showShopModal = true
		m.loadingCatalog = m.catalog == nil
		if m.loadingCatalog {
			return m, m.loadCatalog()
		}
		return m, nil
	case "c":
		if m.pet != nil {
			if err := clipboard.WriteAll(m.pet.ID); err != nil {
				m.status = "Could not copy pet ID: " + err.Error()
			} else {
				m.status = "Pet ID copied to clipboard"
			}
			m.writeLogContent()
		}
		return m, nil
	}

	return m, nil
}

func (m *ConsoleUI) logBattleMove(move *BattleMove) {
	switch {
	case move.Attack != nil:
		if move.Attack.Log != "" {
			m.appendLog(actionStyle, move.Attack.Log)
		} else if move.Attack.Hit {
			m.appendLog(actionStyle, fmt.Sprintf("You hit for %d damage.", move.Attack.Damage))
		} else {
			m.appendLog(actionStyle, "Your attack missed!")
		}
	case move.Defend != nil:
		m.appendLog(actionStyle, fmt.Sprintf("You brace for impact and take %d damage.", move.Defend.Damage))
	case move.Fled != nil:
		if *move.Fled {
			m.appendLog(actionStyle, "You slipped away from the fight.")
		} else {
			m.appendLog(warnStyle, "Couldn't get away!")
		}
	default:
		m.appendLog(actionStyle, "A wild enemy appears!")
	}
}

func describeEvent(ev SSEEvent) string {
	switch pet.EventType(ev.Type) {
	case pet.EventShake:
		return "Your pet shakes its head."
	case pet.EventEvolve:
		return fmt.Sprintf("Evolution started: %v -> %v", ev.Data["from"], ev.Data["to"])
	case pet.EventEvolved:
		return fmt.Sprintf("Evolved into %v!", ev.Data["to"])
	case pet.EventLevelUp:
		return fmt.Sprintf("%v reached level %v!", titleCaser.String(fmt.Sprint(ev.Data["ability"])), ev.Data["level"])
	case pet.EventBattleStart:
		return fmt.Sprintf("Battle started against %v.", ev.Data["enemy"])
	case pet.EventBattleAction:
		return fmt.Sprint(ev.Data["log"])
	case pet.EventBattleEnd:
		if won, ok := ev.Data["won"].(bool); ok && won {
			return "Victory!"
		}
		return "The battle is over."
	case pet.EventDied:
		return "Your pet has died."
	case pet.EventRevived:
		return "A new egg appears."
	default:
		return ev.Type
	}
}

func (m ConsoleUI) doAction(action string) tea.Cmd {
	return func() tea.Msg {
		if m.pet == nil {
			return petMsg{nil, nil}
		}
		id, err := uuid.Parse(m.pet.ID)
		if err != nil {
			return petMsg{nil, err}
		}
		p, err := postAction(m.client, m.config.APIBaseURL, id, action)
		return petMsg{p, err}
	}
}

func (m ConsoleUI) doTrain(ability pet.Ability) tea.Cmd {
	return func() tea.Msg {
		if m.pet == nil {
			return petMsg{nil, nil}
		}
		id, err := uuid.Parse(m.pet.ID)
		if err != nil {
			return petMsg{nil, err}
		}
		p, err := postTrain(m.client, m.config.APIBaseURL, id, ability)
		return petMsg{p, err}
	}
}

func (m ConsoleUI) doBattle(action string) tea.Cmd {
	return func() tea.Msg {
		if m.pet == nil {
			return battleMsg{nil, nil}
		}
		id, err := uuid.Parse(m.pet.ID)
		if err != nil {
			return battleMsg{nil, err}
		}
		move, err := postBattle(m.client, m.config.APIBaseURL, id, action)
		return battleMsg{move, err}
	}
}

func (m ConsoleUI) doItem(op string, item pet.ItemID) tea.Cmd {
	return func() tea.Msg {
		if m.pet == nil {
			return petMsg{nil, nil}
		}
		id, err := uuid.Parse(m.pet.ID)
		if err != nil {
			return petMsg{nil, err}
		}
		p, err := postItem(m.client, m.config.APIBaseURL, id, op, item)
		return petMsg{p, err}
	}
}

func (m ConsoleUI) refreshPet() tea.Cmd {
	return func() tea.Msg {
		if m.pet == nil {
			return petMsg{nil, nil}
		}
		id, err := uuid.Parse(m.pet.ID)
		if err != nil {
			return petMsg{nil, err}
		}
		p, err := getPet(m.client, m.config.APIBaseURL, id)
		return petMsg{p, err}
	}
}

func (m ConsoleUI) loadCatalog() tea.Cmd {
	return func() tea.Msg {
		items, err := getCatalog(m.client, m.config.APIBaseURL)
		return catalogMsg{items, err}
	}
}

func (m ConsoleUI) createNewPet() tea.Cmd {
	return func() tea.Msg {
		p, err := createPet(m.client, m.config.APIBaseURL)
		return petReadyMsg{p, err}
	}
}

func (m ConsoleUI) adoptPet(raw string) tea.Cmd {
	return func() tea.Msg {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return petReadyMsg{nil, fmt.Errorf("invalid pet ID: %w", err)}
		}
		p, err := getPet(m.client, m.config.APIBaseURL, id)
		return petReadyMsg{p, err}
	}
}

// startSSE opens the event stream for the attached pet and returns the
// command that waits for the first event.
func (m *ConsoleUI) startSSE() tea.Cmd {
	id, err := uuid.Parse(m.pet.ID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.sseCancel = cancel
	m.eventChan = make(chan SSEEvent, 16)

	// The shared client has a request timeout, which would sever the
	// stream. SSE gets its own client.
	sseClient := &http.Client{}
	ch := m.eventChan
	go func() {
		_ = listenToSSE(ctx, sseClient, m.config.APIBaseURL, id, ch)
		close(ch)
	}()

	return m.waitForEvent()
}

func (m ConsoleUI) waitForEvent() tea.Cmd {
	ch := m.eventChan
	return func() tea.Msg {
		for {
			ev, ok := <-ch
			if !ok {
				return nil
			}
			if ev.Type == "connected" {
				continue
			}
			return sseEventMsg{ev}
		}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func (m ConsoleUI) updateStartModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case petReadyMsg:
		m.starting = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.pet = msg.pet
		m.showStartModal = false
		m.resizePanels()
		m.metaViewport.SetContent(writeMetadata(m.pet))
		m.appendLog(actionStyle, "Attached to pet "+m.pet.ID[:8]+"...")
		return m, tea.Batch(m.startSSE(), refreshTick())

	case tea.KeyMsg:
		if m.adopting {
			switch msg.Type {
			case tea.KeyCtrlC:
				return m, tea.Quit
			case tea.KeyEsc:
				m.adopting = false
				m.err = nil
				return m, nil
			case tea.KeyCtrlV:
				if text, err := clipboard.ReadAll(); err == nil {
					m.idInput.SetValue(strings.TrimSpace(text))
				}
				return m, nil
			case tea.KeyEnter:
				m.starting = true
				return m, m.adoptPet(m.idInput.Value())
			}
			var cmd tea.Cmd
			m.idInput, cmd = m.idInput.Update(msg)
			return m, cmd
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.startChoice > 0 {
				m.startChoice--
			}
		case tea.KeyDown:
			if m.startChoice < 1 {
				m.startChoice++
			}
		case tea.KeyEnter:
			if m.startChoice == 0 {
				m.starting = true
				return m, m.createNewPet()
			}
			m.adopting = true
			m.idInput.Focus()
			return m, textinput.Blink
		}
	}

	return m, nil
}

func (m ConsoleUI) updateShopModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case catalogMsg:
		m.loadingCatalog = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.catalog = msg.items
		}

	case petMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else if msg.pet != nil {
			m.status = ""
			m.pet = msg.pet
			m.metaViewport.SetContent(writeMetadata(m.pet))
		}

	case refreshTickMsg:
		return m, tea.Batch(m.refreshPet(), refreshTick())

	case sseEventMsg:
		m.appendLog(eventStyle, describeEvent(msg.event))
		return m, m.waitForEvent()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEsc:
			m.showShopModal = false
			m.writeLogContent()
			return m, nil
		case tea.KeyUp:
			if m.selectedItem > 0 {
				m.selectedItem--
			}
		case tea.KeyDown:
			if m.selectedItem < len(m.catalog)-1 {
				m.selectedItem++
			}
		case tea.KeyEnter:
			if len(m.catalog) > 0 {
				return m, m.doItem("buy", m.catalog[m.selectedItem].ID)
			}
		default:
			switch msg.String() {
			case "i", "q":
				m.showShopModal = false
				m.writeLogContent()
				return m, nil
			case "u":
				if len(m.catalog) > 0 {
					return m, m.doItem("use", m.catalog[m.selectedItem].ID)
				}
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			if m.sseCancel != nil {
				m.sseCancel()
			}
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				if m.sseCancel != nil {
					m.sseCancel()
				}
				return m, tea.Quit
			case "d", "D":
				// Release the pet entirely: delete it server-side, then quit.
				if m.pet != nil {
					if id, err := uuid.Parse(m.pet.ID); err == nil {
						_ = deletePet(m.client, m.config.APIBaseURL, id)
					}
				}
				if m.sseCancel != nil {
					m.sseCancel()
				}
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderStartModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.starting {
		content.WriteString(modalTitleStyle.Render("One moment..."))
		content.WriteString("\n\n")
		content.WriteString(warnStyle.Render("Contacting the pet server..."))
	} else if m.adopting {
		content.WriteString(modalTitleStyle.Render("Adopt a Pet"))
		content.WriteString("\n\n")
		content.WriteString(m.idInput.View())
		content.WriteString("\n\n")
		if m.err != nil {
			content.WriteString(errorStyle.Render(m.err.Error()) + "\n\n")
		}
		content.WriteString(promptStyle.Render("Enter to adopt, Ctrl+V to paste, Esc to go back"))
	} else {
		content.WriteString(modalTitleStyle.Render("Welcome to Shapepet"))
		content.WriteString("\n\n")
		if m.err != nil {
			content.WriteString(errorStyle.Render(m.err.Error()) + "\n\n")
		}

		options := []string{"Hatch a new pet", "Adopt an existing pet"}
		for i, opt := range options {
			if i == m.startChoice {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", opt)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", opt)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderShopModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingCatalog {
		content.WriteString(modalTitleStyle.Render("Loading Shop..."))
		content.WriteString("\n\n")
		content.WriteString(warnStyle.Render("Fetching the catalog..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load catalog: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Esc to close")
	} else {
		coins := 0
		owned := map[pet.ItemID]int{}
		if m.pet != nil {
			coins = m.pet.State.Coins
			owned = m.pet.State.Inventory
		}
		content.WriteString(modalTitleStyle.Render(fmt.Sprintf("Shop (%d coins)", coins)))
		content.WriteString("\n\n")

		for i, def := range m.catalog {
			line := fmt.Sprintf("%-18s %4d¢", def.Name, def.Cost)
			if n := owned[def.ID]; n > 0 {
				line += fmt.Sprintf("  (x%d)", n)
			}
			if i == m.selectedItem {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + line))
				content.WriteString("\n")
				content.WriteString(promptStyle.Render("  "+def.Description) + "\n")
			} else {
				content.WriteString(modalItemStyle.Render("  " + line))
				content.WriteString("\n")
			}
		}

		if m.status != "" {
			content.WriteString("\n" + warnStyle.Render(m.status) + "\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Enter to buy, U to use, Esc to close"))
	}

	modal := modalStyle.Width(64).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave Your Pet?"))
	content.WriteString("\n\n")
	content.WriteString("Your pet keeps living on the server while you are away.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Y: quit  N: stay  D: release pet and quit  Ctrl+C: force quit"))

	modal := modalStyle.Width(58).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showStartModal {
		return m.renderStartModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if m.showShopModal {
		return m.renderShopModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 3).Render(
		m.logViewport.View(),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}
