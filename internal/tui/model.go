package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/hylla/partdesk/internal/app"
	"github.com/hylla/partdesk/internal/domain"
)

// boardColumns fixes the column order on the procurement board.
var boardColumns = [3]domain.Status{
	domain.StatusRequested,
	domain.StatusOrdered,
	domain.StatusReceived,
}

// columnTitles stores display titles per status column.
var columnTitles = map[domain.Status]string{
	domain.StatusRequested: "Requested",
	domain.StatusOrdered:   "Ordered",
	domain.StatusReceived:  "Received",
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeAddOrder
	modeEditOrder
	modeEditGroup
	modeCardInfo
	modeConfirmAction
)

// order-form field indexes used throughout keyboard/update logic.
const (
	orderFieldPartName = iota
	orderFieldPartNumber
	orderFieldPartLink
	orderFieldVendor
	orderFieldQuantity
	orderFieldUnitCost
	orderFieldStudent
	orderFieldNotes
	orderFieldCount
)

// group-form field indexes.
const (
	groupFieldTitle = iota
	groupFieldStatusTag
	groupFieldNotes
	groupFieldCount
)

// card is one navigable board entry: a vendor group or a loose order.
type card struct {
	isGroup bool
	order   domain.Order
	group   domain.Group
}

func (c card) id() string {
	if c.isGroup {
		return c.group.ID
	}
	return c.order.ID
}

// confirm kinds for the delete modal.
const (
	confirmDeleteOrder     = "delete-order"
	confirmDeleteSelection = "delete-selection"
	confirmDeleteGroup     = "delete-group"
)

// confirmAction describes a pending confirmation action.
type confirmAction struct {
	Kind    string
	OrderID string
	GroupID string
	Label   string
	Choices []string
}

// Model represents model data used by this package.
type Model struct {
	console *app.Console

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	boardFields    BoardFieldConfig
	trackingPoll   time.Duration
	clipboardWrite func(string) error

	selectedColumn int
	selectedCard   int

	mode           inputMode
	formInputs     []textinput.Model
	formFocus      int
	editingOrderID string
	editingGroupID string
	infoCard       card

	pendingConfirm confirmAction
	confirmChoice  int

	markdown markdownRenderer
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	err error
}

// actionMsg carries message data through update handling.
type actionMsg struct {
	result app.StepResult
	err    error
	status string
}

// trackingTickMsg triggers a periodic shipment resync.
type trackingTickMsg time.Time

// NewModel constructs a new value for this package.
func NewModel(console *app.Console, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		console:        console,
		status:         "loading...",
		help:           h,
		keys:           newKeyMap(),
		boardFields:    DefaultBoardFieldConfig(),
		clipboardWrite: clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadData}
	if m.trackingPoll > 0 {
		cmds = append(cmds, m.nextTrackingTick())
	}
	return tea.Batch(cmds...)
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.clampSelection()
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		if failed := msg.result.Failed(); len(failed) > 0 {
			m.status = fmt.Sprintf("partially applied: %v", failed[0].Err)
		} else if msg.status != "" {
			m.status = msg.status
		}
		m.clampSelection()
		return m, nil

	case trackingTickMsg:
		return m, tea.Batch(m.loadData, m.nextTrackingTick())

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	default:
		return m, nil
	}
}

// loadData refetches orders and groups.
func (m Model) loadData() tea.Msg {
	return loadedMsg{err: m.console.Refresh(context.Background())}
}

func (m Model) nextTrackingTick() tea.Cmd {
	return tea.Tick(m.trackingPoll, func(t time.Time) tea.Msg {
		return trackingTickMsg(t)
	})
}

// handleNormalModeKey routes board-level key presses.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData

	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.clampSelection()
		}
		return m, nil

	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < len(boardColumns)-1 {
			m.selectedColumn++
			m.clampSelection()
		}
		return m, nil

	case key.Matches(msg, m.keys.moveUp):
		if m.selectedCard > 0 {
			m.selectedCard--
		}
		return m, nil

	case key.Matches(msg, m.keys.moveDown):
		if m.selectedCard < len(m.columnCards(boardColumns[m.selectedColumn]))-1 {
			m.selectedCard++
		}
		return m, nil

	case key.Matches(msg, m.keys.toggleSelect):
		if current, ok := m.currentCard(); ok && !current.isGroup {
			m.console.ToggleSelect(current.order.ID)
			m.status = fmt.Sprintf("%d selected", m.console.Selection().Count())
		}
		return m, nil

	case key.Matches(msg, m.keys.selectAll):
		m.console.SelectAllRequested()
		m.status = fmt.Sprintf("%d selected", m.console.Selection().Count())
		return m, nil

	case key.Matches(msg, m.keys.sameVendor):
		if err := m.console.SelectSameVendor(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("%d selected", m.console.Selection().Count())
		return m, nil

	case key.Matches(msg, m.keys.clearSelection):
		if m.console.Selection().AddToOrderActive() {
			m.console.ResetAddToOrder()
			m.status = "add to order canceled"
			return m, nil
		}
		m.console.ClearSelection()
		m.status = "selection cleared"
		return m, nil

	case key.Matches(msg, m.keys.groupSelection):
		if m.console.Selection().Count() == 0 {
			m.status = "select parts to group first"
			return m, nil
		}
		return m, m.actionCmd("order placed", func(ctx context.Context) (app.StepResult, error) {
			return m.console.CreateGroupFromSelection(ctx, "")
		})

	case key.Matches(msg, m.keys.addToOrder):
		return m.handleAddToOrder()

	case key.Matches(msg, m.keys.moveCardLeft):
		return m.moveCurrentCard(-1)

	case key.Matches(msg, m.keys.moveCardRight):
		return m.moveCurrentCard(1)

	case key.Matches(msg, m.keys.deleteCard):
		return m.startConfirmDelete()

	case key.Matches(msg, m.keys.undo):
		if !m.console.CanUndo() {
			m.status = "nothing to undo"
			return m, nil
		}
		label := m.console.UndoLabel()
		return m, func() tea.Msg {
			result, ok := m.console.Undo(context.Background())
			if !ok {
				return actionMsg{status: "nothing to undo"}
			}
			return actionMsg{result: result, status: label + " done"}
		}

	case key.Matches(msg, m.keys.newOrder):
		return m.startOrderForm(nil), nil

	case key.Matches(msg, m.keys.editCard):
		current, ok := m.currentCard()
		if !ok {
			return m, nil
		}
		if current.isGroup {
			return m.startGroupForm(current.group), nil
		}
		return m.startOrderForm(&current.order), nil

	case key.Matches(msg, m.keys.orderInfo):
		if current, ok := m.currentCard(); ok {
			m.infoCard = current
			m.mode = modeCardInfo
		}
		return m, nil

	case key.Matches(msg, m.keys.copyTracking):
		return m.copyTracking()

	default:
		return m, nil
	}
}

// handleAddToOrder arms the transient mode or drops the selection on the
// current card.
func (m Model) handleAddToOrder() (tea.Model, tea.Cmd) {
	selection := m.console.Selection()
	if !selection.AddToOrderActive() {
		if err := m.console.StartAddToOrder(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = "add to order: pick a " + selection.TargetVendor() + " card and press o"
		return m, nil
	}
	current, ok := m.currentCard()
	if !ok || current.isGroup {
		m.status = "pick an order card as the target"
		return m, nil
	}
	targetID := current.order.ID
	return m, m.actionCmd("added to order", func(ctx context.Context) (app.StepResult, error) {
		return m.console.AddSelectionToOrder(ctx, targetID)
	})
}

// moveCurrentCard shifts the current card one status column over.
func (m Model) moveCurrentCard(delta int) (tea.Model, tea.Cmd) {
	current, ok := m.currentCard()
	if !ok {
		return m, nil
	}
	target := m.selectedColumn + delta
	if target < 0 || target >= len(boardColumns) {
		return m, nil
	}
	status := boardColumns[target]
	if current.isGroup {
		groupID := current.group.ID
		return m, m.actionCmd("order moved to "+columnTitles[status], func(ctx context.Context) (app.StepResult, error) {
			return m.console.SetGroupStatus(ctx, groupID, status)
		})
	}
	orderID := current.order.ID
	return m, m.actionCmd("moved to "+columnTitles[status], func(ctx context.Context) (app.StepResult, error) {
		return m.console.MoveOrderToStatus(ctx, orderID, status)
	})
}

// startConfirmDelete opens the delete confirmation for the selection or the
// current card.
func (m Model) startConfirmDelete() (tea.Model, tea.Cmd) {
	if count := m.console.Selection().Count(); count > 0 {
		m.pendingConfirm = confirmAction{
			Kind:    confirmDeleteSelection,
			Label:   fmt.Sprintf("Delete %d selected parts?", count),
			Choices: []string{"delete", "cancel"},
		}
		m.confirmChoice = len(m.pendingConfirm.Choices) - 1
		m.mode = modeConfirmAction
		return m, nil
	}
	current, ok := m.currentCard()
	if !ok {
		return m, nil
	}
	if current.isGroup {
		m.pendingConfirm = confirmAction{
			Kind:    confirmDeleteGroup,
			GroupID: current.group.ID,
			Label:   fmt.Sprintf("Delete order %q?", current.group.Title),
			Choices: []string{"keep parts", "delete parts too", "cancel"},
		}
	} else {
		m.pendingConfirm = confirmAction{
			Kind:    confirmDeleteOrder,
			OrderID: current.order.ID,
			Label:   fmt.Sprintf("Delete %q?", current.order.PartName),
			Choices: []string{"delete", "cancel"},
		}
	}
	m.confirmChoice = len(m.pendingConfirm.Choices) - 1
	m.mode = modeConfirmAction
	return m, nil
}

// copyTracking copies the current card's tracking numbers.
func (m Model) copyTracking() (tea.Model, tea.Cmd) {
	current, ok := m.currentCard()
	if !ok {
		return m, nil
	}
	entries := current.order.Tracking
	if current.isGroup {
		entries = current.group.Tracking
	}
	if len(entries) == 0 {
		m.status = "no tracking to copy"
		return m, nil
	}
	numbers := make([]string, 0, len(entries))
	for _, entry := range entries {
		numbers = append(numbers, entry.Number)
	}
	if err := m.clipboardWrite(strings.Join(numbers, "\n")); err != nil {
		m.status = "copy failed: " + err.Error()
		return m, nil
	}
	m.status = fmt.Sprintf("copied %d tracking number(s)", len(numbers))
	return m, nil
}

// handleInputModeKey routes key presses while a modal or form is open.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeConfirmAction:
		return m.handleConfirmKey(msg)
	case modeCardInfo:
		switch msg.String() {
		case "esc", "q", "i", "enter":
			m.mode = modeNone
		}
		return m, nil
	case modeAddOrder, modeEditOrder:
		return m.handleOrderFormKey(msg)
	case modeEditGroup:
		return m.handleGroupFormKey(msg)
	default:
		m.mode = modeNone
		return m, nil
	}
}

// handleConfirmKey drives the delete confirmation modal.
func (m Model) handleConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.status = "canceled"
		return m, nil
	case "left", "h", "shift+tab":
		if m.confirmChoice > 0 {
			m.confirmChoice--
		}
		return m, nil
	case "right", "l", "tab":
		if m.confirmChoice < len(m.pendingConfirm.Choices)-1 {
			m.confirmChoice++
		}
		return m, nil
	case "enter":
		return m.dispatchConfirm()
	default:
		return m, nil
	}
}

// dispatchConfirm executes the chosen confirmation option.
func (m Model) dispatchConfirm() (tea.Model, tea.Cmd) {
	action := m.pendingConfirm
	choice := m.confirmChoice
	m.mode = modeNone
	if choice == len(action.Choices)-1 {
		m.status = "canceled"
		return m, nil
	}
	switch action.Kind {
	case confirmDeleteOrder:
		orderID := action.OrderID
		return m, m.actionCmd("part deleted", func(ctx context.Context) (app.StepResult, error) {
			return m.console.DeleteOrder(ctx, orderID)
		})
	case confirmDeleteSelection:
		return m, m.actionCmd("parts deleted", func(ctx context.Context) (app.StepResult, error) {
			return m.console.DeleteSelection(ctx)
		})
	case confirmDeleteGroup:
		groupID := action.GroupID
		deleteParts := choice == 1
		status := "order deleted, parts kept"
		if deleteParts {
			status = "order and parts deleted"
		}
		return m, m.actionCmd(status, func(ctx context.Context) (app.StepResult, error) {
			return m.console.DeleteGroup(ctx, groupID, deleteParts)
		})
	default:
		return m, nil
	}
}

// startOrderForm opens the part request form, prefilled when editing.
func (m Model) startOrderForm(existing *domain.Order) Model {
	inputs := make([]textinput.Model, orderFieldCount)
	labels := []string{"part name", "part number", "link", "vendor", "quantity", "unit cost", "student", "notes"}
	for i := range inputs {
		input := textinput.New()
		input.Prompt = ""
		input.Placeholder = labels[i]
		input.CharLimit = 256
		inputs[i] = input
	}
	if existing != nil {
		inputs[orderFieldPartName].SetValue(existing.PartName)
		inputs[orderFieldPartNumber].SetValue(existing.PartNumber)
		inputs[orderFieldPartLink].SetValue(existing.PartLink)
		inputs[orderFieldVendor].SetValue(existing.Vendor)
		inputs[orderFieldQuantity].SetValue(strconv.Itoa(existing.Quantity))
		inputs[orderFieldUnitCost].SetValue(strconv.FormatFloat(existing.UnitCost, 'f', -1, 64))
		inputs[orderFieldStudent].SetValue(existing.StudentName)
		inputs[orderFieldNotes].SetValue(existing.Notes)
		m.editingOrderID = existing.ID
		m.mode = modeEditOrder
	} else {
		inputs[orderFieldQuantity].SetValue("1")
		m.editingOrderID = ""
		m.mode = modeAddOrder
	}
	inputs[0].Focus()
	m.formInputs = inputs
	m.formFocus = 0
	return m
}

// startGroupForm opens the group metadata form.
func (m Model) startGroupForm(group domain.Group) Model {
	inputs := make([]textinput.Model, groupFieldCount)
	labels := []string{"title", "status tag", "notes"}
	for i := range inputs {
		input := textinput.New()
		input.Prompt = ""
		input.Placeholder = labels[i]
		input.CharLimit = 256
		inputs[i] = input
	}
	inputs[groupFieldTitle].SetValue(group.Title)
	inputs[groupFieldStatusTag].SetValue(group.StatusTag)
	inputs[groupFieldNotes].SetValue(group.Notes)
	inputs[0].Focus()
	m.formInputs = inputs
	m.formFocus = 0
	m.editingGroupID = group.ID
	m.mode = modeEditGroup
	return m
}

// handleOrderFormKey drives the part request form.
func (m Model) handleOrderFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.status = "canceled"
		return m, nil
	case "tab", "down":
		m.focusFormField((m.formFocus + 1) % len(m.formInputs))
		return m, nil
	case "shift+tab", "up":
		m.focusFormField((m.formFocus - 1 + len(m.formInputs)) % len(m.formInputs))
		return m, nil
	case "enter":
		if m.formFocus < len(m.formInputs)-1 {
			m.focusFormField(m.formFocus + 1)
			return m, nil
		}
		return m.submitOrderForm()
	}
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

// handleGroupFormKey drives the group metadata form.
func (m Model) handleGroupFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.status = "canceled"
		return m, nil
	case "tab", "down":
		m.focusFormField((m.formFocus + 1) % len(m.formInputs))
		return m, nil
	case "shift+tab", "up":
		m.focusFormField((m.formFocus - 1 + len(m.formInputs)) % len(m.formInputs))
		return m, nil
	case "enter":
		if m.formFocus < len(m.formInputs)-1 {
			m.focusFormField(m.formFocus + 1)
			return m, nil
		}
		return m.submitGroupForm()
	}
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

func (m *Model) focusFormField(idx int) {
	m.formInputs[m.formFocus].Blur()
	m.formFocus = idx
	m.formInputs[m.formFocus].Focus()
}

// submitOrderForm validates and dispatches the create or update.
func (m Model) submitOrderForm() (tea.Model, tea.Cmd) {
	partName := strings.TrimSpace(m.formInputs[orderFieldPartName].Value())
	if partName == "" {
		m.status = "part name is required"
		return m, nil
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(m.formInputs[orderFieldQuantity].Value()))
	if err != nil || quantity <= 0 {
		m.status = "quantity must be a positive number"
		return m, nil
	}
	unitCost := 0.0
	if raw := strings.TrimSpace(m.formInputs[orderFieldUnitCost].Value()); raw != "" {
		unitCost, err = strconv.ParseFloat(raw, 64)
		if err != nil || unitCost < 0 {
			m.status = "unit cost must be a number"
			return m, nil
		}
	}
	partNumber := strings.TrimSpace(m.formInputs[orderFieldPartNumber].Value())
	partLink := strings.TrimSpace(m.formInputs[orderFieldPartLink].Value())
	vendor := strings.TrimSpace(m.formInputs[orderFieldVendor].Value())
	student := strings.TrimSpace(m.formInputs[orderFieldStudent].Value())
	notes := strings.TrimSpace(m.formInputs[orderFieldNotes].Value())
	totalCost := unitCost * float64(quantity)

	editingID := m.editingOrderID
	m.mode = modeNone
	if editingID != "" {
		patch := domain.OrderPatch{
			PartName:   &partName,
			PartNumber: &partNumber,
			PartLink:   &partLink,
			Vendor:     &vendor,
			Quantity:   &quantity,
			UnitCost:   &unitCost,
			TotalCost:  &totalCost,
			Notes:      &notes,
		}
		return m, m.actionCmd("part updated", func(ctx context.Context) (app.StepResult, error) {
			return m.console.UpdateOrder(ctx, editingID, patch)
		})
	}
	in := domain.OrderInput{
		PartName:    partName,
		PartNumber:  partNumber,
		PartLink:    partLink,
		Vendor:      vendor,
		Quantity:    quantity,
		UnitCost:    unitCost,
		TotalCost:   totalCost,
		StudentName: student,
		Notes:       notes,
	}
	return m, m.actionCmd("part requested", func(ctx context.Context) (app.StepResult, error) {
		return m.console.CreateOrder(ctx, in)
	})
}

// submitGroupForm dispatches the group metadata update.
func (m Model) submitGroupForm() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.formInputs[groupFieldTitle].Value())
	if title == "" {
		m.status = "title is required"
		return m, nil
	}
	statusTag := strings.TrimSpace(m.formInputs[groupFieldStatusTag].Value())
	notes := strings.TrimSpace(m.formInputs[groupFieldNotes].Value())
	groupID := m.editingGroupID
	m.mode = modeNone
	patch := domain.GroupPatch{Title: &title, StatusTag: &statusTag, Notes: &notes}
	return m, m.actionCmd("order updated", func(ctx context.Context) (app.StepResult, error) {
		return m.console.UpdateGroup(ctx, groupID, patch)
	})
}

// actionCmd wraps a console flow into a command.
func (m Model) actionCmd(status string, run func(context.Context) (app.StepResult, error)) tea.Cmd {
	return func() tea.Msg {
		result, err := run(context.Background())
		return actionMsg{result: result, err: err, status: status}
	}
}

// columnCards returns the navigable cards of one status column: vendor groups
// first, then loose orders.
func (m Model) columnCards(status domain.Status) []card {
	store := m.console.Store()
	var out []card
	for _, group := range store.GroupsWithStatus(status) {
		out = append(out, card{isGroup: true, group: group})
	}
	for _, order := range store.Ungrouped(status) {
		out = append(out, card{order: order})
	}
	return out
}

func (m Model) currentCard() (card, bool) {
	cards := m.columnCards(boardColumns[m.selectedColumn])
	if m.selectedCard < 0 || m.selectedCard >= len(cards) {
		return card{}, false
	}
	return cards[m.selectedCard], true
}

func (m *Model) clampSelection() {
	cards := m.columnCards(boardColumns[m.selectedColumn])
	if m.selectedCard >= len(cards) {
		m.selectedCard = len(cards) - 1
	}
	if m.selectedCard < 0 {
		m.selectedCard = 0
	}
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	var body string
	switch m.mode {
	case modeConfirmAction:
		body = m.viewConfirm()
	case modeCardInfo:
		body = m.viewCardInfo()
	case modeAddOrder, modeEditOrder, modeEditGroup:
		body = m.viewForm()
	default:
		body = m.viewBoard()
	}

	v := tea.NewView(body)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	columnStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("239")).Padding(0, 1)
	activeColStyle = columnStyle.BorderForeground(lipgloss.Color("62"))
	cardStyle      = lipgloss.NewStyle().PaddingLeft(1)
	cursorStyle    = lipgloss.NewStyle().PaddingLeft(1).Foreground(lipgloss.Color("212"))
	groupStyle     = lipgloss.NewStyle().PaddingLeft(1).Bold(true).Foreground(lipgloss.Color("110"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	modalStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(1, 2)
	choiceStyle    = lipgloss.NewStyle().Padding(0, 1)
	choiceSelStyle = choiceStyle.Reverse(true)
)

// viewBoard renders the three status columns.
func (m Model) viewBoard() string {
	columnWidth := m.width/len(boardColumns) - 4
	if columnWidth < 20 {
		columnWidth = 20
	}

	rendered := make([]string, 0, len(boardColumns))
	for idx, status := range boardColumns {
		cards := m.columnCards(status)
		var b strings.Builder
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", columnTitles[status], len(cards))))
		b.WriteString("\n")
		for cardIdx, entry := range cards {
			b.WriteString(m.renderCard(entry, idx == m.selectedColumn && cardIdx == m.selectedCard, columnWidth))
			b.WriteString("\n")
		}
		style := columnStyle
		if idx == m.selectedColumn {
			style = activeColStyle
		}
		rendered = append(rendered, style.Width(columnWidth).Render(b.String()))
	}

	board := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	var footer strings.Builder
	footer.WriteString(statusStyle.Render(m.statusLine()))
	footer.WriteString("\n")
	footer.WriteString(m.help.View(m.keys))
	return board + "\n" + footer.String()
}

// statusLine builds the footer status text.
func (m Model) statusLine() string {
	parts := []string{m.status}
	if count := m.console.Selection().Count(); count > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", count))
	}
	if m.console.Selection().AddToOrderActive() {
		parts = append(parts, "add to order: "+m.console.Selection().TargetVendor())
	}
	if m.console.CanUndo() {
		parts = append(parts, m.console.UndoLabel()+" (z)")
	}
	return strings.Join(parts, " • ")
}

// renderCard renders one board entry.
func (m Model) renderCard(entry card, cursor bool, width int) string {
	style := cardStyle
	if cursor {
		style = cursorStyle
	}

	if entry.isGroup {
		members := m.console.Store().Members(entry.group.ID)
		line := fmt.Sprintf("▣ %s (%d)", entry.group.Title, len(members))
		if entry.group.StatusTag != "" {
			line += " [" + entry.group.StatusTag + "]"
		}
		out := groupStyle.Render(truncate(line, width-2))
		if cursor {
			out = cursorStyle.Render(truncate(line, width-2))
		}
		if m.boardFields.ShowTracking && len(entry.group.Tracking) > 0 {
			out += "\n" + mutedStyle.Render(truncate("  "+trackingSummary(entry.group.Tracking), width-2))
		}
		return out
	}

	marker := "·"
	if m.console.Selection().Has(entry.order.ID) {
		marker = "✓"
	}
	line := fmt.Sprintf("%s %s ×%d", marker, entry.order.PartName, entry.order.Quantity)
	out := style.Render(truncate(line, width-2))
	var details []string
	if m.boardFields.ShowVendor && entry.order.Vendor != "" {
		details = append(details, entry.order.Vendor)
	}
	if m.boardFields.ShowStudent && entry.order.StudentName != "" {
		details = append(details, entry.order.StudentName)
	}
	if m.boardFields.ShowCosts && entry.order.TotalCost > 0 {
		details = append(details, fmt.Sprintf("$%.2f", entry.order.TotalCost))
	}
	if m.boardFields.ShowTracking && len(entry.order.Tracking) > 0 {
		details = append(details, trackingSummary(entry.order.Tracking))
	}
	if len(details) > 0 {
		out += "\n" + mutedStyle.Render(truncate("  "+strings.Join(details, " • "), width-2))
	}
	return out
}

// viewConfirm renders the delete confirmation modal.
func (m Model) viewConfirm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.pendingConfirm.Label))
	b.WriteString("\n\n")
	for idx, choice := range m.pendingConfirm.Choices {
		style := choiceStyle
		if idx == m.confirmChoice {
			style = choiceSelStyle
		}
		b.WriteString(style.Render(choice))
		b.WriteString(" ")
	}
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("←/→ choose • enter confirm • esc cancel"))
	return modalStyle.Render(b.String())
}

// viewCardInfo renders the details panel with glamour-rendered notes.
func (m Model) viewCardInfo() string {
	width := m.width - 8
	if width < 40 {
		width = 40
	}
	var b strings.Builder
	if m.infoCard.isGroup {
		group := m.infoCard.group
		b.WriteString("# " + group.Title + "\n\n")
		b.WriteString(fmt.Sprintf("- vendor: %s\n- status: %s\n", group.Vendor, columnTitles[group.Status]))
		if group.StatusTag != "" {
			b.WriteString("- tag: " + group.StatusTag + "\n")
		}
		for _, entry := range group.Tracking {
			b.WriteString("- tracking: " + formatTracking(entry) + "\n")
		}
		members := m.console.Store().Members(group.ID)
		if len(members) > 0 {
			b.WriteString("\n## Parts\n\n")
			for _, member := range members {
				b.WriteString(fmt.Sprintf("- %s ×%d\n", member.PartName, member.Quantity))
			}
		}
		if group.Notes != "" {
			b.WriteString("\n## Notes\n\n" + group.Notes + "\n")
		}
	} else {
		order := m.infoCard.order
		b.WriteString("# " + order.PartName + "\n\n")
		b.WriteString(fmt.Sprintf("- vendor: %s\n- quantity: %d\n- status: %s\n", order.Vendor, order.Quantity, columnTitles[order.Status]))
		if order.PartNumber != "" {
			b.WriteString("- part number: " + order.PartNumber + "\n")
		}
		if order.StudentName != "" {
			b.WriteString("- requested by: " + order.StudentName + "\n")
		}
		if order.TotalCost > 0 {
			b.WriteString(fmt.Sprintf("- total: $%.2f\n", order.TotalCost))
		}
		for _, entry := range order.Tracking {
			b.WriteString("- tracking: " + formatTracking(entry) + "\n")
		}
		if order.Notes != "" {
			b.WriteString("\n## Notes\n\n" + order.Notes + "\n")
		}
	}
	rendered := m.markdown.render(b.String(), width)
	return rendered + "\n\n" + mutedStyle.Render("esc close")
}

// viewForm renders the part request or group form.
func (m Model) viewForm() string {
	labels := []string{"Part name", "Part number", "Link", "Vendor", "Quantity", "Unit cost", "Student", "Notes"}
	header := "New part request"
	if m.mode == modeEditOrder {
		header = "Edit part request"
	}
	if m.mode == modeEditGroup {
		header = "Edit order"
		labels = []string{"Title", "Status tag", "Notes"}
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	for idx, input := range m.formInputs {
		label := labels[idx]
		if idx == m.formFocus {
			b.WriteString(cursorStyle.Render("> " + label + ": "))
		} else {
			b.WriteString(cardStyle.Render("  " + label + ": "))
		}
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("tab next • enter submit • esc cancel"))
	return modalStyle.Render(b.String())
}

// trackingSummary joins the tracking states for one card line.
func trackingSummary(entries []domain.TrackingEntry) string {
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts = append(parts, formatTracking(entry))
	}
	return strings.Join(parts, ", ")
}

func formatTracking(entry domain.TrackingEntry) string {
	out := entry.Carrier + " " + entry.Number
	if entry.Delivered {
		return out + " (delivered)"
	}
	if entry.State != "" {
		out += " (" + entry.State + ")"
	}
	return out
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
