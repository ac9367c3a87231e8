// Package genesis implements the FreeSWITCH Event Socket protocol: a
// line-oriented, header-plus-body protocol used to command and observe a
// call-processing switch.
//
// Two connection modes are supported. In inbound mode the application
// dials a running switch, authenticates, and may issue commands and
// subscribe to events for the whole switch. In outbound mode the switch
// dials the application once per call, and one Session controls that one
// call.
//
// # Inbound
//
//	ctx := context.Background()
//	session, err := genesis.Dial(ctx, "127.0.0.1:8021", "ClueCon",
//	    genesis.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	if err := session.EnableEvents(ctx, genesis.FormatPlain, "HEARTBEAT"); err != nil {
//	    log.Fatal(err)
//	}
//
//	session.Subscribe(func(ev *genesis.Event) {
//	    fmt.Println("heartbeat from", ev.Get("Core-UUID"))
//	}, "HEARTBEAT")
//
//	reply, err := session.API(ctx, "status")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s", reply.Body)
//
// # Outbound
//
//	server := genesis.NewOutboundServer(func(ctx context.Context, s *genesis.Session) {
//	    s.Answer(ctx)
//	    s.Playback(ctx, "ivr/ivr-welcome.wav")
//	    s.Hangup(ctx, "NORMAL_CLEARING")
//	})
//	log.Fatal(server.ListenAndServe(ctx, "127.0.0.1:9000"))
//
// The session is closed and the connection released when the handler
// returns, on every exit path.
//
// # Background jobs
//
// Commands issued with BGAPI return immediately with a job handle; the
// result arrives later as a BACKGROUND_JOB event and resolves the handle:
//
//	job, err := session.BGAPI(ctx, "originate sofia/gateway/pstn/1234 &park()")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := job.Wait(ctx)
//
// # Error Handling
//
// Failures surface as distinct, inspectable values: ErrCommandTimeout is
// local to one command and leaves the session usable, while
// ErrSessionClosed, *MalformedFrameError, and *StreamError mean the
// connection is gone and a new session must be established. There is no
// implicit reconnection.
package genesis
