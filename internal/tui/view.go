package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/round"
)

const sidebarWidth = 26

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	table := paneStyle.Width(max(m.width-2, 1)).Render(m.renderTable())
	footer := m.renderFooter()
	usedHeight := lipgloss.Height(table) + lipgloss.Height(footer)

	sidebar := paneStyle.
		Width(sidebarWidth).
		Height(max(m.height-usedHeight-2, 1)).
		Render(m.renderSidebar())

	logWidth := max(m.width-sidebarWidth-4, 1)
	logHeight := max(m.height-usedHeight-2, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = logHeight
	m.logViewport.SetContent(GameLogStyle.Render(strings.Join(m.gameLog, "\n")))
	if !m.initialized && logWidth > 1 && logHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}
	logPane := focusedPaneStyle.Width(logWidth).Height(logHeight).Render(m.logViewport.View())

	middle := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebar)
	return lipgloss.JoinVertical(lipgloss.Left, table, middle, footer)
}

// renderTable draws the dealer and player hands
func (m *Model) renderTable() string {
	var b strings.Builder
	s := m.snap

	b.WriteString(HeaderStyle.Render(" ♠ ♥ Blackjack ♦ ♣ "))
	b.WriteString("  ")
	b.WriteString(InfoStyle.Render(stageLabel(s.Stage)))
	b.WriteString("\n\n")

	dealer := formatCards(s.Dealer)
	if s.HoleHidden {
		dealer += " " + HiddenCardStyle.Render("??")
	}
	if len(s.Dealer) > 0 {
		dealer += fmt.Sprintf("  (%d)", s.DealerValue)
	}
	b.WriteString(HandInfoStyle.Render("Dealer: "))
	b.WriteString(dealer)
	b.WriteString("\n")

	if len(s.Hands) == 0 {
		b.WriteString(InfoStyle.Render("Place your bet and press d to deal"))
		return b.String()
	}
	for i, h := range s.Hands {
		b.WriteString(m.renderHand(i, h))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderHand(i int, h hand.Hand) string {
	label := "You"
	if len(m.snap.Hands) > 1 {
		label = fmt.Sprintf("Hand %d", i+1)
	}
	line := fmt.Sprintf("%s: %s  (%d)  bet $%s", label, formatCards(h.Cards), h.BestValue(), humanize.Comma(int64(h.Bet)))
	if h.HasResult() {
		line += "  " + resultStyle(h.Result).Render(strings.ToUpper(h.Result.String()))
	}

	active := m.snap.Stage == round.StagePlayerTurn && i == m.snap.ActiveHand && !h.IsDone()
	if active {
		return ActiveHandStyle.Render("▶ ") + line
	}
	return "  " + line
}

// renderSidebar shows the bankroll
func (m *Model) renderSidebar() string {
	var b strings.Builder
	s := m.snap

	fmt.Fprintf(&b, "Balance: $%s\n", humanize.Comma(int64(s.Balance)))
	fmt.Fprintf(&b, "Highest: $%s\n", humanize.Comma(int64(s.Highest)))
	b.WriteString(WarningStyle.Render(fmt.Sprintf("Pot: $%s", humanize.Comma(int64(s.Pot)))))
	b.WriteString("\n")
	if s.Staked > s.Pot {
		fmt.Fprintf(&b, "Staked: $%s\n", humanize.Comma(int64(s.Staked)))
	}
	if s.Insurance > 0 {
		fmt.Fprintf(&b, "Insurance: $%s\n", humanize.Comma(int64(s.Insurance)))
	}
	if s.Stage == round.StageNewRound {
		b.WriteString("\n")
		b.WriteString(deltaStyle(s.LastDelta).Render(fmt.Sprintf("Last round: %+d", s.LastDelta)))
		b.WriteString("\n")
	}
	if s.ShowLost {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("You're broke!"))
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render("Press f to refill"))
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	var b strings.Builder
	if m.status != "" {
		b.WriteString(ErrorStyle.Render(m.status))
		b.WriteString("\n")
	} else if m.snap.Stage == round.StageInsurancePrompt {
		b.WriteString(ActionsStyle.Render(fmt.Sprintf("Dealer shows an ace. Insure for $%d? (i/n)", m.fullInsurance())))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func stageLabel(s round.Stage) string {
	switch s {
	case round.StageIdle, round.StageNewRound:
		return "Place your bet"
	case round.StageInsurancePrompt:
		return "Insurance?"
	case round.StagePlayerTurn:
		return "Your move"
	case round.StageDealerTurn:
		return "Dealer's turn"
	default:
		return strings.ReplaceAll(s.String(), "_", " ")
	}
}

func resultStyle(r hand.Result) lipgloss.Style {
	switch r {
	case hand.BlackjackWin, hand.Win:
		return SuccessStyle
	case hand.Push:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

func deltaStyle(delta int) lipgloss.Style {
	switch {
	case delta > 0:
		return SuccessStyle
	case delta < 0:
		return ErrorStyle
	}
	return WarningStyle
}

// formatCards formats cards with colors
func formatCards(cards []deck.Card) string {
	if len(cards) == 0 {
		return ""
	}

	formatted := make([]string, 0, len(cards))
	for _, card := range cards {
		if card.IsRed() {
			formatted = append(formatted, RedCardStyle.Render(card.String()))
		} else {
			formatted = append(formatted, BlackCardStyle.Render(card.String()))
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}
