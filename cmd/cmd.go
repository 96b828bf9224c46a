// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Create a config file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the backend session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in through the browser and store the session token",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the login URL instead of opening a browser",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: defaultLoginTimeout,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Inspect the stored session token and ask the backend about it",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "End the backend session and forget the stored token",
				Action: r.AuthLogout,
			},
		},
	}
}

// meCommand handles profile operations
func meCommand(r *Runner) *cli.Command {
	rangeFlag := &cli.StringFlag{
		Name:  "range",
		Usage: "Time range (short_term, medium_term, long_term)",
		Value: "medium_term",
	}
	return &cli.Command{
		Name:   "me",
		Usage:  "Show the signed-in user's profile",
		Action: r.Me,
		Commands: []*cli.Command{
			{
				Name:  "top-tracks",
				Usage: "List the user's top tracks",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of tracks", Value: 20},
					&cli.IntFlag{Name: "offset", Usage: "Offset into the ranking"},
					rangeFlag,
				},
				Action: r.TopTracks,
			},
			{
				Name:  "top-artists",
				Usage: "List the user's top artists",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of artists", Value: 20},
					rangeFlag,
				},
				Action: r.TopArtists,
			},
		},
	}
}

// searchCommand searches the provider catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of results", Value: 10},
			&cli.BoolFlag{Name: "cached", Usage: "Search the local track cache instead of the backend"},
		},
		Action: r.Search,
	}
}

// roomCommand handles room operations
func roomCommand(r *Runner) *cli.Command {
	roomArg := []cli.Argument{&cli.StringArg{Name: "room-id"}}
	return &cli.Command{
		Name:  "room",
		Usage: "Create, join and manage rooms",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a room",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "private", Usage: "Only joinable by code"},
				},
				Action: r.RoomCreate,
			},
			{
				Name:      "join",
				Usage:     "Join a room by its share code",
				Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
				Action:    r.RoomJoin,
			},
			{
				Name:      "show",
				Usage:     "Show room details",
				Arguments: roomArg,
				Action:    r.RoomShow,
			},
			{
				Name:      "queue",
				Usage:     "Show the vote-ordered queue",
				Arguments: roomArg,
				Action:    r.RoomQueue,
			},
			{
				Name:  "add",
				Usage: "Add a track by URI or by search query (first hit)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "room-id"},
					&cli.StringArg{Name: "track"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Track name when adding an uncached URI"},
					&cli.StringFlag{Name: "artist", Usage: "Artist when adding an uncached URI"},
				},
				Action: r.RoomAdd,
			},
			{
				Name:      "vote",
				Usage:     "Vote on a queue item",
				Arguments: roomArg,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "item", Usage: "Queue item ID"},
					&cli.StringFlag{Name: "match", Aliases: []string{"m"}, Usage: "Fuzzy match on track name and artist"},
					&cli.BoolFlag{Name: "down", Usage: "Downvote instead of upvote"},
				},
				Action: r.RoomVote,
			},
			{
				Name:      "members",
				Usage:     "List connected members",
				Arguments: roomArg,
				Action:    r.RoomMembers,
			},
			{
				Name:      "watch",
				Usage:     "Join a room by code and stream live events until interrupted",
				Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
				Action:    r.RoomWatch,
			},
			{
				Name:      "export",
				Usage:     "Export one or more rooms with their queue",
				ArgsUsage: "ROOM_ID [ROOM_ID...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, csv, markdown, text)",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (single room) or directory (several rooms)",
					},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent exports", Value: 5},
				},
				Action: r.RoomExport,
			},
			{
				Name:      "seed",
				Usage:     "Fill a room queue from search queries or your top tracks",
				Arguments: roomArg,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search query; repeatable"},
					&cli.IntFlag{Name: "top", Usage: "Number of top tracks to add"},
					&cli.StringFlag{Name: "range", Usage: "Time range for --top", Value: "medium_term"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent workers", Value: 3},
					&cli.FloatFlag{Name: "rate", Usage: "Requests per second", Value: 5},
					&cli.BoolFlag{Name: "dry-run", Usage: "Resolve tracks without adding them"},
				},
				Action: r.RoomSeed,
			},
			{
				Name:  "recent",
				Usage: "List rooms you recently created or joined",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of rooms", Value: 10},
					&cli.StringFlag{Name: "role", Usage: "Only rooms you created or joined"},
				},
				Action: r.RoomRecent,
			},
		},
	}
}

// playerCommand handles playback operations through the backend
func playerCommand(r *Runner) *cli.Command {
	deviceFlag := &cli.StringFlag{
		Name:  "device",
		Usage: "Device ID (defaults to the device currently playing)",
	}
	return &cli.Command{
		Name:  "player",
		Usage: "Control playback",
		Commands: []*cli.Command{
			{
				Name:   "state",
				Usage:  "Show what is playing",
				Action: r.PlayerState,
			},
			{
				Name:      "play",
				Usage:     "Play a track URI",
				Arguments: []cli.Argument{&cli.StringArg{Name: "uri"}},
				Flags:     []cli.Flag{deviceFlag},
				Action:    r.PlayerPlay,
			},
			{
				Name:   "pause",
				Usage:  "Pause playback",
				Flags:  []cli.Flag{deviceFlag},
				Action: r.PlayerPause,
			},
			{
				Name:   "toggle",
				Usage:  "Pause or resume playback",
				Flags:  []cli.Flag{deviceFlag},
				Action: r.PlayerToggle,
			},
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Flags:  []cli.Flag{deviceFlag},
				Action: r.PlayerNext,
			},
			{
				Name:   "prev",
				Usage:  "Skip to the previous track",
				Flags:  []cli.Flag{deviceFlag},
				Action: r.PlayerPrevious,
			},
			{
				Name:      "transfer",
				Usage:     "Move playback to a device",
				Arguments: []cli.Argument{&cli.StringArg{Name: "device-id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "play", Usage: "Start playing after the transfer"},
				},
				Action: r.PlayerTransfer,
			},
			{
				Name:      "volume",
				Usage:     "Set the configured device's volume (0-100)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "percent"}},
				Action:    r.PlayerVolume,
			},
		},
	}
}

// apiCommand handles direct backend API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the backend, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the room dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"ui"},
		Usage:     "Join a room by code and open the interactive dashboard",
		Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-path",
				Usage: "Where dashboard logs go while the screen is in use",
				Value: "./tmp/jamroom-tui.log",
			},
		},
		Action: r.TUI,
	}
}
