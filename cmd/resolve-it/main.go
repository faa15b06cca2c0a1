// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// resolve-it loads a timeline from a JSON or YAML file, resolves it, and
// prints the state at a point in time.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"

	supertimeline "github.com/dolthub/supertimeline"
	"github.com/dolthub/supertimeline/cache"
	"github.com/dolthub/supertimeline/timeline"
	"github.com/dolthub/supertimeline/timelinejson"
)

type options struct {
	File string `short:"f" long:"file" required:"true" description:"timeline file to resolve"`
	YAML bool   `long:"yaml" description:"parse the file as YAML instead of JSON"`

	Time       uint64  `short:"t" long:"time" default:"0" description:"base time to resolve for"`
	StateAt    *uint64 `long:"state-at" description:"time to print the state at (defaults to --time)"`
	LimitCount *int    `long:"limit-count" description:"limit the number of repetitions resolved"`
	LimitTime  *uint64 `long:"limit-time" description:"limit repetitions to before this time"`
	Events     int     `long:"events" default:"0" description:"max next-events to print (0 = all)"`

	CachePath string `long:"cache" description:"path of a persistent resolve-cache database"`

	Pretty  bool `short:"p" long:"pretty" description:"pretty-print the state instead of JSON"`
	Verbose bool `short:"v" long:"verbose" description:"enable debug logging"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	logger := logrus.New()
	logger.Out = os.Stderr
	if opts.Verbose {
		logger.Level = logrus.DebugLevel
	}

	if err := run(&opts, logger); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func run(opts *options, logger *logrus.Logger) error {
	data, err := ioutil.ReadFile(opts.File)
	if err != nil {
		return err
	}

	var objects []timeline.TimelineObject
	if opts.YAML {
		objects, err = timelinejson.UnmarshalTimelineYAML(data)
	} else {
		objects, err = timelinejson.UnmarshalTimeline(data)
	}
	if err != nil {
		return err
	}

	cfg := &supertimeline.Config{Logger: logger}
	if opts.CachePath != "" {
		boltCache, err := cache.NewBolt(opts.CachePath)
		if err != nil {
			return err
		}
		cfg.Cache = boltCache
	}

	engine := supertimeline.New(cfg)
	defer func() { _ = engine.Close() }()

	resolveOptions := timeline.ResolveOptions{
		Time:       timeline.Time(opts.Time),
		LimitCount: opts.LimitCount,
	}
	if opts.LimitTime != nil {
		resolveOptions.LimitTime = timeline.TimePtr(timeline.Time(*opts.LimitTime))
	}

	ctx := engine.NewContext(context.Background())

	resolved, err := engine.Resolve(ctx, objects, resolveOptions)
	if err != nil {
		return err
	}

	states, err := engine.ResolveAllStates(ctx, resolved, nil)
	if err != nil {
		return err
	}

	stateTime := timeline.Time(opts.Time)
	if opts.StateAt != nil {
		stateTime = timeline.Time(*opts.StateAt)
	}

	timelineState := engine.GetState(states, stateTime, opts.Events)

	if opts.Pretty {
		pp.Println(timelineState)
		return nil
	}

	encoded, err := json.MarshalIndent(timelineState, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
