package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"

	"github.com/adanyl0v/go-tasksync/internal/models"
	"github.com/adanyl0v/go-tasksync/internal/realtime"
)

var (
	createdColor = color.New(color.FgGreen, color.Bold)
	updatedColor = color.New(color.FgYellow, color.Bold)
	deletedColor = color.New(color.FgRed, color.Bold)
	relayColor   = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
)

func formatEvent(at time.Time, ev realtime.Event) string {
	stamp := dimColor.Sprint(at.Format(time.TimeOnly))
	switch e := ev.(type) {
	case realtime.TaskCreated:
		return fmt.Sprintf("%s %s %s", stamp, createdColor.Sprint("CREATED"), formatTask(e.Task))
	case realtime.TaskUpdated:
		return fmt.Sprintf("%s %s %s", stamp, updatedColor.Sprint("UPDATED"), formatTask(e.Task))
	case realtime.TaskDeleted:
		return fmt.Sprintf("%s %s #%d", stamp, deletedColor.Sprint("DELETED"), e.TaskID)
	default:
		return fmt.Sprintf("%s %s", stamp, ev.Type())
	}
}

func formatTask(t models.Task) string {
	s := fmt.Sprintf("#%d %q [%s/%s]", t.ID, t.Title, t.Status, t.Priority)
	if t.AssignedTo != nil && *t.AssignedTo != "" {
		s += " @" + *t.AssignedTo
	}
	return s
}

func formatRelay(at time.Time, msg []byte) string {
	return fmt.Sprintf("%s %s %s", dimColor.Sprint(at.Format(time.TimeOnly)), relayColor.Sprint("RELAY  "), msg)
}

func formatApiTest(r *models.ApiTestRecord) string {
	status := "-"
	statusColor := dimColor
	if r.ResponseStatus != nil {
		status = strconv.Itoa(*r.ResponseStatus)
		switch {
		case *r.ResponseStatus >= 500:
			statusColor = deletedColor
		case *r.ResponseStatus >= 400:
			statusColor = updatedColor
		default:
			statusColor = createdColor
		}
	}

	s := fmt.Sprintf("#%d %s %s -> %s", r.ID, r.Method, r.Endpoint, statusColor.Sprint(status))
	if r.ResponseBody != nil && *r.ResponseBody != "" {
		s += "\n" + *r.ResponseBody
	}
	return s
}
