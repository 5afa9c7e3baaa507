package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"portfolioDashboard/internal/config"
	"portfolioDashboard/internal/dashboard"
	"portfolioDashboard/internal/finance"
	"portfolioDashboard/internal/logging"
	"portfolioDashboard/internal/session"
	"portfolioDashboard/internal/storage"
)

var (
	reHelp    = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
	reAssets  = regexp.MustCompile(`^/assets(?:@[\w_]+)?$`)
	reSet     = regexp.MustCompile(`^/set(?:@[\w_]+)?\s+(.+)$`)
	reEqual   = regexp.MustCompile(`^/equal(?:@[\w_]+)?$`)
	reClear   = regexp.MustCompile(`^/clear(?:@[\w_]+)?$`)
	reWeights = regexp.MustCompile(`^/weights(?:@[\w_]+)?$`)
	rePie     = regexp.MustCompile(`^/pie(?:@[\w_]+)?$`)
	rePerf    = regexp.MustCompile(`^/perf(?:@[\w_]+)?$`)
	reBench   = regexp.MustCompile(`^/bench(?:@[\w_]+)?$`)
	reSave    = regexp.MustCompile(`^/save(?:@[\w_]+)?\s+(.+)$`)
	reLoad    = regexp.MustCompile(`^/load(?:@[\w_]+)?\s+(.+)$`)
	reSaved   = regexp.MustCompile(`^/saved(?:@[\w_]+)?$`)
	reDelete  = regexp.MustCompile(`^/delete(?:@[\w_]+)?\s+(.+)$`)
	// /port SYM W [SYM W ...] [window]
	rePort     = regexp.MustCompile(`^/port(?:@[\w_]+)?\s+(.+)$`)
	reForecast = regexp.MustCompile(`^/forecast(?:@[\w_]+)?\s+(.+)$`)
	reUsage    = regexp.MustCompile(`^/usage(?:@[\w_]+)?(?:\s+(\d+))?$`)
)

// Sender is the part of the Bot API the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Handlers struct {
	api      Sender
	sessions *storage.SessionStore
	usage    *storage.UsageLog
	svc      *dashboard.Service
	logger   *logging.Logger
	timeout  time.Duration
}

func NewHandlers(api Sender, sessions *storage.SessionStore, usage *storage.UsageLog,
	svc *dashboard.Service, logger *logging.Logger) *Handlers {
	return &Handlers{
		api:      api,
		sessions: sessions,
		usage:    usage,
		svc:      svc,
		logger:   logger.Component("telegram"),
		timeout:  2 * time.Minute,
	}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	txt := strings.TrimSpace(m.Text)
	if txt == "" || !strings.HasPrefix(txt, "/") {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	chatID := m.Chat.ID
	var userID int64
	if m.From != nil {
		userID = m.From.ID
	}
	command, category := classify(txt)
	if category != "" {
		if err := h.usage.Record(ctx, chatID, userID, command, category, int64(m.Date)); err != nil {
			h.logger.Warn().Err(err).Msg("usage record failed")
		}
	}
	h.logger.Debug().Int64("chat_id", chatID).Str("command", command).Msg("handling command")

	switch {
	case reHelp.MatchString(txt):
		h.handleHelp(chatID)

	case reAssets.MatchString(txt):
		cfg := h.svc.Config()
		h.replyMarkdown(chatID, "*Asset universe*\n\n"+toTelegramMarkdown(dashboard.FormatUniverse(cfg.Universe, cfg.Benchmark)))

	case reSet.MatchString(txt):
		assignments, err := parseAssignments(reSet.FindStringSubmatch(txt)[1])
		if err != nil {
			h.reply(chatID, err.Error()+"\nUsage: /set NAME PCT [NAME PCT ...], e.g. /set Apple 30 Gold 20")
			return
		}
		step := h.svc.Config().WeightStep
		h.transition(ctx, chatID, func(st session.State) (session.State, error) {
			var err error
			for _, a := range assignments {
				if st, err = st.SetWeight(a.name, a.percent, step); err != nil {
					return st, fmt.Errorf("%s: %w", a.name, err)
				}
			}
			return st, nil
		}, h.sendWeights)

	case reEqual.MatchString(txt):
		h.transition(ctx, chatID, func(st session.State) (session.State, error) {
			return st.EqualWeights(), nil
		}, h.sendWeights)

	case reClear.MatchString(txt):
		h.transition(ctx, chatID, func(st session.State) (session.State, error) {
			return st.ClearWeights(), nil
		}, h.sendWeights)

	case reWeights.MatchString(txt):
		h.withState(ctx, chatID, h.sendWeights)

	case rePie.MatchString(txt):
		h.withState(ctx, chatID, func(st session.State) {
			img, err := h.svc.CompositionChart(st)
			if err != nil {
				h.reply(chatID, "Pie chart failed: "+err.Error())
				return
			}
			h.sendPhoto(chatID, "composition.png", img, fmt.Sprintf("Composition • total %d%%", st.Total()))
		})

	case rePerf.MatchString(txt):
		h.withState(ctx, chatID, func(st session.State) { h.handlePerf(ctx, chatID, st) })

	case reBench.MatchString(txt):
		h.withState(ctx, chatID, func(st session.State) { h.handleBench(ctx, chatID, st) })

	case reSave.MatchString(txt):
		name := strings.TrimSpace(reSave.FindStringSubmatch(txt)[1])
		h.transition(ctx, chatID, func(st session.State) (session.State, error) {
			return st.Save(name, time.Now())
		}, func(session.State) { h.reply(chatID, fmt.Sprintf("Saved portfolio %q.", name)) })

	case reLoad.MatchString(txt):
		name := strings.TrimSpace(reLoad.FindStringSubmatch(txt)[1])
		h.transition(ctx, chatID, func(st session.State) (session.State, error) {
			return st.Load(name)
		}, h.sendWeights)

	case reDelete.MatchString(txt):
		name := strings.TrimSpace(reDelete.FindStringSubmatch(txt)[1])
		h.transition(ctx, chatID, func(st session.State) (session.State, error) {
			return st.Delete(name)
		}, func(session.State) { h.reply(chatID, fmt.Sprintf("Deleted portfolio %q.", name)) })

	case reSaved.MatchString(txt):
		h.withState(ctx, chatID, func(st session.State) {
			names := st.SavedNames()
			if len(names) == 0 {
				h.reply(chatID, "No saved portfolios yet. Use /save NAME once your weights total 100%.")
				return
			}
			h.reply(chatID, "Saved portfolios:\n- "+strings.Join(names, "\n- "))
		})

	case rePort.MatchString(txt):
		h.handlePort(ctx, chatID, txt)

	case reForecast.MatchString(txt):
		h.handleForecast(ctx, chatID, strings.TrimSpace(reForecast.FindStringSubmatch(txt)[1]))

	case reUsage.MatchString(txt):
		days := 7
		if g := reUsage.FindStringSubmatch(txt); len(g) == 2 && g[1] != "" {
			fmt.Sscanf(g[1], "%d", &days)
			if days < 1 {
				days = 1
			}
			if days > 90 {
				days = 90
			}
		}
		h.handleUsage(ctx, chatID, days)

	default:
		h.reply(chatID, "Unknown command. Try /help.")
	}
}

// classify maps a command to its usage category. Unknown commands are not
// recorded.
func classify(txt string) (command, category string) {
	command = strings.Fields(txt)[0]
	if i := strings.Index(command, "@"); i > 0 {
		command = command[:i]
	}
	switch command {
	case "/assets", "/set", "/equal", "/clear", "/weights", "/save", "/load", "/saved", "/delete":
		return command, "session"
	case "/perf", "/bench", "/port":
		return command, "analysis"
	case "/forecast":
		return command, "forecast"
	case "/pie", "/usage":
		return command, "charts"
	case "/help", "/start":
		return command, "help"
	}
	return command, ""
}

// withState loads the chat's state, starting from the default weights when
// the chat is new, and hands it to fn.
func (h *Handlers) withState(ctx context.Context, chatID int64, fn func(session.State)) {
	st, err := h.sessions.Update(ctx, chatID, h.fresh(ctx), func(st session.State) (session.State, error) {
		return h.reconcile(ctx, st), nil
	})
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	fn(st)
}

// transition applies fn to the chat's state and saves the result. A failed
// transition leaves the stored state unchanged.
func (h *Handlers) transition(ctx context.Context, chatID int64, fn func(session.State) (session.State, error), then func(session.State)) {
	st, err := h.sessions.Update(ctx, chatID, h.fresh(ctx), func(st session.State) (session.State, error) {
		return fn(h.reconcile(ctx, st))
	})
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	then(st)
}

// reconcile follows the loaded universe when its columns changed since the
// state was stored.
func (h *Handlers) reconcile(ctx context.Context, st session.State) session.State {
	u, err := h.svc.Universe(ctx)
	if err != nil || slices.Equal(u.Names(), st.Assets) {
		return st
	}
	return st.WithAssets(u.Names())
}

func (h *Handlers) fresh(ctx context.Context) func() session.State {
	return func() session.State {
		st, err := h.svc.FreshState(ctx)
		if err != nil {
			h.logger.Warn().Err(err).Msg("universe unavailable, starting from configured assets")
			var names []string
			for _, c := range h.svc.Config().Universe {
				for _, a := range c.Assets {
					names = append(names, a.Name)
				}
			}
			return session.New(0, names)
		}
		return st
	}
}

func (h *Handlers) sendWeights(st session.State) {
	var sb strings.Builder
	held := st.Held()
	if len(held) == 0 {
		sb.WriteString("No assets held.\n")
	}
	for _, hd := range held {
		fmt.Fprintf(&sb, "• %s: %d%%\n", hd.Name, hd.Percent)
	}
	fmt.Fprintf(&sb, "\nTotal: %d%%", st.Total())
	if !st.Complete() {
		fmt.Fprintf(&sb, " (must be 100%% for analysis)")
	}
	h.reply(st.ChatID, sb.String())
}

func (h *Handlers) handlePerf(ctx context.Context, chatID int64, st session.State) {
	if !st.Complete() {
		h.reply(chatID, fmt.Sprintf("Weights total %d%%. Adjust them to 100%% to see the analysis.", st.Total()))
		return
	}
	h.reply(chatID, "Crunching numbers…")
	rep, err := h.svc.Report(ctx, st, dashboard.ReportOptions{Forecast: true})
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	img, err := h.svc.PerformanceChart(rep)
	if err != nil {
		h.logger.Warn().Err(err).Msg("performance chart failed")
		h.replyMarkdown(chatID, toTelegramMarkdown(dashboard.FormatReport(rep)))
		return
	}
	caption := fmt.Sprintf("Return %.2f%% • Vol %.2f%% • Sharpe %.2f",
		rep.Performance.AnnualReturn*100, rep.Performance.AnnualVolatility*100, rep.Performance.SharpeRatio)
	if rep.Forecast != nil {
		caption += fmt.Sprintf(" • Forecast %.2f%%", rep.Forecast.Total*100)
	}
	h.sendPhoto(chatID, "performance.png", img, caption)
}

func (h *Handlers) handleBench(ctx context.Context, chatID int64, st session.State) {
	if !st.Complete() {
		h.reply(chatID, fmt.Sprintf("Weights total %d%%. Adjust them to 100%% to compare with the benchmark.", st.Total()))
		return
	}
	rep, err := h.svc.Report(ctx, st, dashboard.ReportOptions{Benchmark: true})
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	if rep.Comparison.Empty() {
		h.reply(chatID, "Benchmark data unavailable right now.")
		return
	}
	img, err := h.svc.ComparisonChart(rep)
	if err != nil {
		h.reply(chatID, "Comparison chart failed: "+err.Error())
		return
	}
	verdict := "did not beat the market"
	if rep.Comparison.Outperformed {
		verdict = "outperformed the market 🎉"
	}
	caption := fmt.Sprintf("Portfolio %.2f vs %s %.2f • %s",
		rep.Comparison.PortfolioFinal, rep.BenchmarkName, rep.Comparison.BenchmarkFinal, verdict)
	h.sendPhoto(chatID, "benchmark.png", img, caption)
}

func (h *Handlers) handlePort(ctx context.Context, chatID int64, txt string) {
	req, err := finance.ParsePortfolioCommand(txt)
	if err != nil {
		h.reply(chatID, "Invalid portfolio: "+err.Error()+"\nUsage: /port SPY 0.6 TLT 40% 1y")
		return
	}
	rep, err := h.svc.AnalyzePort(ctx, req)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	img, err := h.svc.PortChart(rep)
	if err != nil {
		h.replyMarkdown(chatID, toTelegramMarkdown(dashboard.FormatPortReport(rep)))
		return
	}
	caption := "Portfolio: " + strings.Join(req.Symbols(), ", ") + " • " + strings.ToUpper(req.Window)
	if len(rep.Missing) > 0 {
		caption += " • no data: " + strings.Join(rep.Missing, ", ")
	}
	h.sendPhoto(chatID, strings.Join(req.Symbols(), "_")+".png", img, caption)
}

func (h *Handlers) handleForecast(ctx context.Context, chatID int64, key string) {
	asset, ok := config.FindAsset(h.svc.Config().Universe, key)
	if !ok {
		h.reply(chatID, fmt.Sprintf("Unknown asset %q. See /assets.", key))
		return
	}
	pred, err := h.svc.Forecast(ctx, asset)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.reply(chatID, fmt.Sprintf("%s (%s): expected return over the next %d trading days %.2f%%",
		asset.Name, asset.Ticker, h.svc.Config().Forecast.Horizon, pred*100))
}

func (h *Handlers) handleUsage(ctx context.Context, chatID int64, days int) {
	since := time.Now().AddDate(0, 0, -days).Unix()
	stats, err := h.usage.Stats(ctx, since)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.reply(chatID, finance.FormatUsageStatsText(stats, days))
	if len(stats) == 0 {
		return
	}
	if img, err := finance.MakeUsageChart(stats, days); err == nil {
		h.sendPhoto(chatID, "usage.png", img, fmt.Sprintf("Usage by category • %dd", days))
	}
	series, err := h.usage.TimeSeries(ctx, since)
	if err != nil {
		return
	}
	if img, err := finance.MakeUsageTimeSeriesChart(series, days); err == nil {
		h.sendPhoto(chatID, "usage_daily.png", img, "Commands per day")
	}
}

func (h *Handlers) handleHelp(chatID int64) {
	step := h.svc.Config().WeightStep
	help := "Commands\n\n" +
		"- /assets - List the asset universe and benchmark\n" +
		fmt.Sprintf("- /set NAME PCT [NAME PCT ...] - Set weights in %d%% steps (names may be prefixes)\n", step) +
		"- /equal - Reset to equal weights\n" +
		"- /clear - Set every weight to 0\n" +
		"- /weights - Show current weights\n" +
		"- /pie - Composition pie chart\n" +
		"- /perf - Annual return, volatility, Sharpe ratio, drawdown and forecast\n" +
		"- /bench - Compare with the benchmark index\n" +
		"- /save NAME, /load NAME, /delete NAME, /saved - Manage saved portfolios\n" +
		"- /forecast NAME - Model forecast for one asset\n" +
		"- /port SYM W [SYM W ...] [window] - Ad-hoc ticker portfolio, e.g. /port SPY 0.6 TLT 40% 1y\n" +
		"- /usage [days] - Command usage statistics\n" +
		"\nWeights must total 100% before analysis. Sessions live in memory only."
	h.reply(chatID, help)
}

func (h *Handlers) replyError(chatID int64, err error) {
	var msg string
	switch {
	case errors.Is(err, session.ErrUnknownAsset):
		msg = err.Error() + ". See /assets."
	case errors.Is(err, session.ErrIncomplete):
		msg = "Weights must total 100% before saving."
	case errors.Is(err, dashboard.ErrNoPrices):
		msg = "Price data is unavailable right now. Please try again later."
	case errors.Is(err, context.DeadlineExceeded):
		msg = "That took too long. Please try again."
	default:
		msg = "Error: " + err.Error()
	}
	h.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("command failed")
	h.reply(chatID, msg)
}

func (h *Handlers) reply(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (h *Handlers) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := h.api.Send(msg); err != nil {
		h.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (h *Handlers) sendPhoto(chatID int64, name string, img []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: img})
	photo.Caption = caption
	if _, err := h.api.Send(photo); err != nil {
		h.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("send photo failed")
	}
}

type assignment struct {
	name    string
	percent int
}

// parseAssignments reads "NAME PCT [NAME PCT ...]". Names may span several
// words, including numeric ones such as "KODEX 200": of consecutive numbers
// only the last is the weight. A trailing % always marks a weight.
func parseAssignments(s string) ([]assignment, error) {
	var out []assignment
	var name []string
	toks := strings.Fields(s)
	for i, tok := range toks {
		n, err := strconv.Atoi(strings.TrimSuffix(tok, "%"))
		isWeight := err == nil
		if isWeight && !strings.HasSuffix(tok, "%") && i+1 < len(toks) {
			if _, err := strconv.Atoi(strings.TrimSuffix(toks[i+1], "%")); err == nil {
				isWeight = false
			}
		}
		if !isWeight {
			name = append(name, tok)
			continue
		}
		if len(name) == 0 {
			return nil, fmt.Errorf("weight %s has no asset name", tok)
		}
		out = append(out, assignment{name: strings.Join(name, " "), percent: n})
		name = nil
	}
	if len(name) > 0 {
		return nil, fmt.Errorf("missing weight for %q", strings.Join(name, " "))
	}
	if len(out) == 0 {
		return nil, errors.New("no weights given")
	}
	return out, nil
}

// toTelegramMarkdown downgrades CommonMark emphasis to Telegram's legacy
// Markdown and drops headings markers.
func toTelegramMarkdown(md string) string {
	md = strings.ReplaceAll(md, "**", "*")
	lines := strings.Split(md, "\n")
	for i, l := range lines {
		if strings.HasPrefix(l, "#") {
			lines[i] = "*" + strings.TrimSpace(strings.TrimLeft(l, "#")) + "*"
		}
	}
	return strings.Join(lines, "\n")
}
