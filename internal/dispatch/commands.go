package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/coopco/helmsman/internal/settings"
)

const helpText = `Commands:
  status | usage | help | ping
  timezone | timezone_set <zone>
  safe_mode on|off
  model set <provider> <key>
  persona_set <text> | heartbeat_set <text>
  reminder_set_daily <HH:MM> <message>
  webjob_set_daily <HH:MM> <query>
  reminder_show | reminder_clear
  cron_add <min> <hour> <day> <month> <weekday> | <command>
  cron_list | cron_clear
  relay_set <pin> <0|1> | flash_led <count>
  fw_check | fw_apply
  email_draft to|subject|body <text> | email_show | email_send | email_clear
  search <query>
  page_make <topic> | page_host
  confirm [id] | cancel`

// command evaluates the exact/prefix command battery. The second return
// is the response when handled.
func (d *Dispatcher) command(input, lower string, now time.Time) (bool, string) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false, ""
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch cmd {
	case "ping":
		return true, "pong"

	case "help":
		return true, helpText

	case "status":
		return true, d.statusReport(now)

	case "usage":
		u := d.settings.Usage()
		return true, fmt.Sprintf("Usage: %d LLM calls, %d searches, %d actions, %d errors",
			u.LLMCalls, u.SearchCalls, u.Actions, u.Errors)

	case "confirm":
		if len(args) > 1 {
			return true, "ERR: usage: confirm [id]"
		}
		if len(args) == 1 {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return true, "ERR: usage: confirm [id]"
			}
			return true, d.confirm(id, true, now)
		}
		return true, d.confirm(0, false, now)

	case "cancel":
		return true, d.cancel()

	case "yes", "yep", "yeah":
		return d.acceptFirmwareOffer(now)

	case "timezone":
		if tz := d.settings.Timezone(); tz != "" {
			return true, "Timezone: " + tz
		}
		return true, "No timezone configured. Use: timezone_set <zone>"

	case "timezone_set":
		if len(args) != 1 {
			return true, "ERR: usage: timezone_set <zone>"
		}
		return true, d.applyTimezone(args[0], now)

	case "safe_mode":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return true, "ERR: usage: safe_mode on|off"
		}
		on := args[0] == "on"
		if err := d.settings.SetSafeMode(on); err != nil {
			return true, fmt.Sprintf("ERR: failed to save safe mode: %v", err)
		}
		if on {
			return true, "Safe mode ON — relay and LED actions are blocked."
		}
		return true, "Safe mode OFF."

	case "model":
		if len(args) != 3 || args[0] != "set" {
			return true, "ERR: usage: model set <provider> <key>"
		}
		if err := d.settings.SetString("model.provider", args[1]); err != nil {
			return true, fmt.Sprintf("ERR: failed to save provider: %v", err)
		}
		if err := d.settings.SetString("model.key", args[2]); err != nil {
			return true, fmt.Sprintf("ERR: %v", err)
		}
		return true, fmt.Sprintf("Model provider set to %s.", args[1])

	case "persona_set":
		if rest == "" {
			return true, "ERR: usage: persona_set <text>"
		}
		if err := d.settings.SetPersona(rest); err != nil {
			return true, fmt.Sprintf("ERR: failed to save persona: %v", err)
		}
		return true, "Persona updated."

	case "heartbeat_set":
		if rest == "" {
			return true, "ERR: usage: heartbeat_set <text>"
		}
		if err := d.settings.SetHeartbeatPrompt(rest); err != nil {
			return true, fmt.Sprintf("ERR: failed to save heartbeat: %v", err)
		}
		return true, "Heartbeat content updated."

	case "reminder_set_daily", "webjob_set_daily":
		if len(args) < 2 {
			return true, fmt.Sprintf("ERR: usage: %s <HH:MM> <message>", cmd)
		}
		kind := settings.TaskNote
		if cmd == "webjob_set_daily" {
			kind = settings.TaskWebJob
		}
		msg := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
		return true, d.setDailyReminder(args[0], settings.ReminderTask{Kind: kind, Text: msg}, now)

	case "reminder_show":
		r, ok := d.settings.DailyReminderSlot()
		if !ok {
			return true, "No daily reminder configured."
		}
		return true, fmt.Sprintf("%s at %s daily: %s", taskLabel(r.Task.Kind), r.Time, r.Task.Text)

	case "reminder_clear":
		if err := d.settings.ClearDailyReminder(); err != nil {
			return true, fmt.Sprintf("ERR: failed to clear reminder: %v", err)
		}
		return true, "Daily reminder cleared."

	case "cron_add":
		if rest == "" {
			return true, "ERR: usage: cron_add <min> <hour> <day> <month> <weekday> | <command>"
		}
		job, err := d.cron.Add(rest)
		if err != nil {
			return true, fmt.Sprintf("ERR: %v", err)
		}
		return true, "Cron job added: " + job.Render()

	case "cron_list":
		jobs := d.cron.Jobs()
		if len(jobs) == 0 {
			return true, "No cron jobs stored."
		}
		var b strings.Builder
		for i, j := range jobs {
			fmt.Fprintf(&b, "%d. %s\n", i+1, j.Render())
		}
		return true, strings.TrimRight(b.String(), "\n")

	case "cron_clear":
		if err := d.cron.Clear(); err != nil {
			return true, fmt.Sprintf("ERR: failed to clear cron jobs: %v", err)
		}
		return true, "All cron jobs cleared."

	case "relay_set":
		if len(args) != 2 {
			return true, "ERR: usage: relay_set <pin> <0|1>"
		}
		pin, err := strconv.Atoi(args[0])
		if err != nil || pin < 0 || pin > 63 {
			return true, fmt.Sprintf("ERR: invalid pin %q (0-63)", args[0])
		}
		level, err := strconv.Atoi(args[1])
		if err != nil || (level != 0 && level != 1) {
			return true, fmt.Sprintf("ERR: invalid level %q (0 or 1)", args[1])
		}
		return true, d.requestAction(
			Action{Kind: ActionRelaySet, Pin: pin, Level: level},
			fmt.Sprintf("set relay pin %d to %d", pin, level), now)

	case "flash_led":
		if len(args) != 1 {
			return true, "ERR: usage: flash_led <count>"
		}
		count, err := strconv.Atoi(args[0])
		if err != nil || count < 1 || count > 100 {
			return true, fmt.Sprintf("ERR: invalid count %q (1-100)", args[0])
		}
		return true, d.requestAction(
			Action{Kind: ActionLedFlash, Count: count},
			fmt.Sprintf("flash the LED %d times", count), now)

	case "fw_check", "fw_update":
		return true, d.checkFirmware(now)

	case "fw_apply":
		if d.fwOffer == nil {
			return true, "ERR: no firmware offer — run fw_check first"
		}
		if now.Sub(d.fwOffer.notifiedAt) > firmwareOfferTTL {
			d.fwOffer = nil
			return true, "ERR: firmware offer expired — run fw_check again"
		}
		return true, d.requestAction(
			Action{Kind: ActionFirmwareUpdate, Version: d.fwOffer.version, DownloadURL: d.fwOffer.downloadURL},
			fmt.Sprintf("install firmware %s and reboot", d.fwOffer.version), now)

	case "email_draft":
		if len(args) < 2 {
			return true, "ERR: usage: email_draft to|subject|body <text>"
		}
		value := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
		if err := d.settings.SetEmailDraftField(strings.ToLower(args[0]), value); err != nil {
			return true, fmt.Sprintf("ERR: %v", err)
		}
		return true, fmt.Sprintf("Email %s set.", strings.ToLower(args[0]))

	case "email_show":
		draft := d.settings.EmailDraftSlot()
		if draft.To == "" && draft.Subject == "" && draft.Body == "" {
			return true, "Email draft is empty."
		}
		return true, fmt.Sprintf("To: %s\nSubject: %s\n\n%s", draft.To, draft.Subject, draft.Body)

	case "email_send":
		return true, d.sendEmail()

	case "email_clear":
		if err := d.settings.ClearEmailDraft(); err != nil {
			return true, fmt.Sprintf("ERR: failed to clear draft: %v", err)
		}
		return true, "Email draft cleared."

	case "search":
		// Accept both "search <query>" and the spoken "search for <query>".
		query := strings.TrimSpace(strings.TrimPrefix(rest, "for "))
		if query == "" {
			return true, "ERR: usage: search <query>"
		}
		return true, d.runSearch(query)

	case "page_make":
		if rest == "" {
			return true, "ERR: usage: page_make <topic>"
		}
		return true, d.makePage(rest)

	case "page_host":
		return true, d.hostPage()

	case "reminder_run":
		return true, d.runReminder()

	case "heartbeat_run":
		return true, d.runHeartbeat()

	case "proactive_check":
		return true, d.runProactive(now)
	}

	return false, ""
}

func (d *Dispatcher) statusReport(now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Local time: %s\n", now.Format("Mon 15:04"))

	if tz := d.settings.Timezone(); tz != "" {
		fmt.Fprintf(&b, "Timezone: %s\n", tz)
	} else {
		b.WriteString("Timezone: not set\n")
	}

	if d.settings.SafeMode() {
		b.WriteString("Safe mode: ON\n")
	} else {
		b.WriteString("Safe mode: off\n")
	}

	if r, ok := d.settings.DailyReminderSlot(); ok {
		fmt.Fprintf(&b, "%s at %s daily: %s\n", taskLabel(r.Task.Kind), r.Time, r.Task.Text)
	}
	fmt.Fprintf(&b, "Cron jobs: %d\n", len(d.cron.Jobs()))

	switch d.pend.state {
	case ActionPending:
		fmt.Fprintf(&b, "Pending: action %d (%s) awaiting confirmation\n", d.pend.action.ID, d.pend.action.Kind)
	case AwaitingTimezone:
		b.WriteString("Pending: reminder waiting for a timezone\n")
	case AwaitingDetails:
		b.WriteString("Pending: reminder waiting for time and message\n")
	}
	if d.fwOffer != nil && now.Sub(d.fwOffer.notifiedAt) <= firmwareOfferTTL {
		fmt.Fprintf(&b, "Firmware %s available (reply yes to install)\n", d.fwOffer.version)
	}

	u := d.settings.Usage()
	fmt.Fprintf(&b, "Usage: %d LLM calls, %d searches, %d actions, %d errors",
		u.LLMCalls, u.SearchCalls, u.Actions, u.Errors)
	return b.String()
}

// checkFirmware runs an update check and, when one is available, opens a
// time-limited offer answerable with a plain yes.
func (d *Dispatcher) checkFirmware(now time.Time) string {
	info, err := d.exec.Firmware.CheckUpdate(context.Background())
	if err != nil {
		d.settings.CountError()
		return fmt.Sprintf("ERR: update check failed: %v", err)
	}
	if !info.Available {
		d.fwOffer = nil
		return "Firmware is up to date."
	}
	d.fwOffer = &firmwareOffer{
		version:     info.Version,
		downloadURL: info.DownloadURL,
		notifiedAt:  now,
	}
	return fmt.Sprintf("Firmware %s is available. Reply 'yes' within %d minutes to install and reboot.",
		info.Version, int(firmwareOfferTTL.Minutes()))
}

// acceptFirmwareOffer handles a bare yes/yep/yeah. Without an offer the
// word is not a command at all and falls through to conversation.
func (d *Dispatcher) acceptFirmwareOffer(now time.Time) (bool, string) {
	if d.fwOffer == nil {
		return false, ""
	}
	offer := d.fwOffer
	d.fwOffer = nil
	if now.Sub(offer.notifiedAt) > firmwareOfferTTL {
		return true, "ERR: firmware offer expired — run fw_check again"
	}
	if err := d.exec.Firmware.Apply(context.Background(), offer.downloadURL); err != nil {
		d.settings.CountError()
		return true, fmt.Sprintf("ERR: firmware update failed: %v", err)
	}
	d.settings.CountAction()
	return true, fmt.Sprintf("Installing firmware %s, rebooting...", offer.version)
}

func (d *Dispatcher) sendEmail() string {
	draft := d.settings.EmailDraftSlot()
	if draft.To == "" {
		return "ERR: email draft has no recipient — use 'email_draft to <address>'"
	}
	if err := d.exec.Email.Send(context.Background(), draft.To, draft.Subject, draft.Body); err != nil {
		d.settings.CountError()
		return fmt.Sprintf("ERR: email send failed: %v", err)
	}
	d.settings.CountAction()
	if err := d.settings.ClearEmailDraft(); err != nil {
		return fmt.Sprintf("Email sent to %s (draft not cleared: %v)", draft.To, err)
	}
	return "Email sent to " + draft.To
}

func (d *Dispatcher) runSearch(query string) string {
	result, err := d.exec.Search.Search(context.Background(), query)
	if err != nil {
		d.settings.CountError()
		return fmt.Sprintf("ERR: search failed: %v", err)
	}
	d.settings.CountSearch()
	return result
}

func (d *Dispatcher) makePage(topic string) string {
	prompt := "Write a small self-contained HTML page about: " + topic +
		"\nReturn only the HTML document, no commentary."
	html, err := d.exec.Chat.Reply(context.Background(), prompt)
	if err != nil {
		d.settings.CountError()
		return fmt.Sprintf("ERR: page generation failed: %v", err)
	}
	d.settings.CountLLMCall()
	if err := d.settings.SetLastPage(html); err != nil {
		return fmt.Sprintf("ERR: failed to store page: %v", err)
	}
	return "Page generated and stored. Use 'page_host' to publish it."
}

func (d *Dispatcher) hostPage() string {
	html := d.settings.LastPage()
	if html == "" {
		return "ERR: no generated content to host — use 'page_make <topic>' first"
	}
	url, err := d.exec.Pages.Publish(context.Background(), html)
	if err != nil {
		d.settings.CountError()
		return fmt.Sprintf("ERR: publish failed: %v", err)
	}
	d.settings.CountAction()
	return "Published: " + url
}

// runReminder executes the daily slot when the scheduler fires
// reminder_run: notes are delivered verbatim, web jobs run a search.
func (d *Dispatcher) runReminder() string {
	r, ok := d.settings.DailyReminderSlot()
	if !ok {
		return "ERR: no daily reminder configured"
	}
	if r.Task.Kind == settings.TaskWebJob {
		return d.runSearch(r.Task.Text)
	}
	return "Reminder: " + r.Task.Text
}

func (d *Dispatcher) runHeartbeat() string {
	prompt := d.settings.HeartbeatPrompt()
	if prompt == "" {
		return "ERR: no heartbeat content configured"
	}
	reply, err := d.exec.Chat.Reply(context.Background(), prompt)
	if err != nil {
		d.settings.CountError()
		return fmt.Sprintf("ERR: heartbeat failed: %v", err)
	}
	d.settings.CountLLMCall()
	return reply
}

func (d *Dispatcher) runProactive(now time.Time) string {
	prompt := "You are the device assistant doing a periodic self-check. Current status:\n" +
		d.statusReport(now) +
		"\nIf anything needs the owner's attention, say so in one short message; otherwise reply OK."
	reply, err := d.exec.Chat.Reply(context.Background(), prompt)
	if err != nil {
		d.settings.CountError()
		return fmt.Sprintf("ERR: proactive check failed: %v", err)
	}
	d.settings.CountLLMCall()
	return reply
}
