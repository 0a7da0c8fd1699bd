package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/constraints"
)

type command struct {
	help string
	run  func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":            {"sign in with email and password", cmdLogin},
	"register":         {"create an account (sends an OTP first)", cmdRegister},
	"logout":           {"end the session and forget the tokens", cmdLogout},
	"whoami":           {"show the signed-in user", cmdWhoami},
	"reset-password":   {"reset a password with an emailed OTP", cmdResetPassword},
	"conferences":      {"list | get | create | status | delete", cmdConferences},
	"register-session": {"book a seat: register-session <conference-id>", cmdRegisterSession},
	"feedback":         {"list | add | delete", cmdFeedback},
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.session.Login(ctx, v1.LoginRequest{Email: *email, Password: *password}); err != nil {
		return err
	}
	return printUser(a)
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	name := fs.String("name", "", "Display name")
	password := fs.String("password", "", "Account password")
	otp := fs.String("otp", "", "One-time code; prompted for when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	code := *otp
	if code == "" {
		if err := a.session.RequestRegisterOTP(ctx, *email); err != nil {
			return err
		}
		var err error
		if code, err = prompt(fmt.Sprintf("code sent to %s: ", *email)); err != nil {
			return err
		}
	}
	if err := a.session.CheckRegisterOTP(ctx, *email, code); err != nil {
		return err
	}
	verified, _ := a.session.OTP().Code(*email)

	err := a.session.Register(ctx, v1.RegisterRequest{
		Email:    *email,
		OTP:      verified,
		Name:     *name,
		Password: *password,
	})
	if err != nil {
		return err
	}
	return printUser(a)
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	if err := a.session.Start(ctx); err != nil {
		return err
	}
	if !a.session.IsAuthenticated() {
		fmt.Println("not logged in")
		return nil
	}
	return printUser(a)
}

func cmdResetPassword(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "New password")
	otp := fs.String("otp", "", "One-time code; prompted for when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	code := *otp
	if code == "" {
		if err := a.session.RequestResetPasswordOTP(ctx, *email); err != nil {
			return err
		}
		var err error
		if code, err = prompt(fmt.Sprintf("code sent to %s: ", *email)); err != nil {
			return err
		}
	}
	err := a.session.ResetPassword(ctx, v1.ResetPasswordRequest{
		Email:       *email,
		OTP:         code,
		NewPassword: *password,
	})
	if err != nil {
		return err
	}
	return printUser(a)
}

func cmdConferences(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	sub, args := args[0], args[1:]
	confs := a.client.Conferences

	switch sub {
	case "list":
		fs := flag.NewFlagSet("conferences list", flag.ContinueOnError)
		q := v1.ConferenceQuery{}
		pageFlags(fs, &q.Page)
		fs.StringVar(&q.HostID, "host", "", "Filter by host id")
		status := fs.String("status", "", "pending, approved or rejected")
		fs.StringVar(&q.Title, "title", "", "Title substring")
		fs.StringVar(&q.OrderBy, "order-by", "", "starts_at or title")
		fs.StringVar(&q.Order, "order", "", "asc or desc")
		fs.BoolVar(&q.IncludePast, "past", false, "Include ended conferences")
		if err := fs.Parse(args); err != nil {
			return err
		}
		q.Status = constraints.ConferenceStatus(*status)
		res, err := confs.List(ctx, q)
		if err != nil {
			return err
		}
		return printJSON(res)

	case "get":
		if len(args) != 1 {
			return errUsage
		}
		conf, err := confs.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(conf)

	case "create":
		fs := flag.NewFlagSet("conferences create", flag.ContinueOnError)
		req := v1.CreateConferenceRequest{}
		fs.StringVar(&req.Title, "title", "", "Title")
		fs.StringVar(&req.Description, "description", "", "Description")
		fs.StringVar(&req.SpeakerName, "speaker", "", "Speaker name")
		fs.StringVar(&req.SpeakerTitle, "speaker-title", "", "Speaker title")
		fs.StringVar(&req.TargetAudience, "audience", "", "Target audience")
		prerequisites := fs.String("prerequisites", "", "Prerequisites")
		fs.IntVar(&req.Seats, "seats", 0, "Seat count")
		starts := fs.String("starts", "", "Start time, RFC3339")
		ends := fs.String("ends", "", "End time, RFC3339")
		if err := fs.Parse(args); err != nil {
			return err
		}
		var err error
		if req.StartsAt, err = parseTime("starts", *starts); err != nil {
			return err
		}
		if req.EndsAt, err = parseTime("ends", *ends); err != nil {
			return err
		}
		if *prerequisites != "" {
			req.Prerequisites = prerequisites
		}
		id, err := confs.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil

	case "status":
		if len(args) != 2 {
			return errUsage
		}
		if err := confs.UpdateStatus(ctx, args[0], constraints.ConferenceStatus(args[1])); err != nil {
			return err
		}
		fmt.Printf("%s -> %s\n", args[0], args[1])
		return nil

	case "delete":
		if len(args) != 1 {
			return errUsage
		}
		return confs.Delete(ctx, args[0])
	}
	return errUsage
}

func cmdRegisterSession(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.client.Registrations.Register(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("registered for %s\n", args[0])
	return nil
}

func cmdFeedback(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	sub, id, args := args[0], args[1], args[2:]
	feedbacks := a.client.Feedbacks

	switch sub {
	case "list":
		fs := flag.NewFlagSet("feedback list", flag.ContinueOnError)
		page := v1.Page{}
		pageFlags(fs, &page)
		if err := fs.Parse(args); err != nil {
			return err
		}
		res, err := feedbacks.ListByConference(ctx, id, page)
		if err != nil {
			return err
		}
		return printJSON(res)

	case "add":
		fs := flag.NewFlagSet("feedback add", flag.ContinueOnError)
		comment := fs.String("comment", "", "Comment text")
		if err := fs.Parse(args); err != nil {
			return err
		}
		fid, err := feedbacks.Create(ctx, v1.CreateFeedbackRequest{ConferenceID: id, Comment: *comment})
		if err != nil {
			return err
		}
		fmt.Println(fid)
		return nil

	case "delete":
		return feedbacks.Delete(ctx, id)
	}
	return errUsage
}

// -- helpers --

func pageFlags(fs *flag.FlagSet, p *v1.Page) {
	fs.IntVar(&p.Limit, "limit", 0, "Page size (1-20)")
	fs.StringVar(&p.AfterID, "after", "", "Cursor: items after this id")
	fs.StringVar(&p.BeforeID, "before", "", "Cursor: items before this id")
}

func parseTime(name, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("-%s: %w", name, err)
	}
	return t, nil
}

func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func printUser(a *app) error {
	return printJSON(a.session.User())
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
