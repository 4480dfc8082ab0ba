/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/asgardeo/dagserde/internal/plugin"
	"github.com/asgardeo/dagserde/internal/serialization"
	"github.com/asgardeo/dagserde/internal/serialization/podcodec"
	"github.com/asgardeo/dagserde/internal/system/config"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// newSerializer builds a serializer over a frozen default registry.
func newSerializer(cfg config.SerializationConfig) (*serialization.Serializer, error) {
	registry, err := plugin.NewDefaultRegistry()
	if err != nil {
		return nil, err
	}
	registry.Freeze()

	opts := []serialization.Option{
		serialization.WithMaxDepth(cfg.MaxDepth),
		serialization.WithDagsFolder(cfg.DagsFolder),
	}
	if cfg.PodCodecEnabled {
		opts = append(opts, serialization.WithPodCodec(podcodec.New()))
	}
	return serialization.NewSerializerWithDetector(registry, cfg.DependencyDetector, opts...)
}

// documentFlags are the flags shared by the commands that read a document.
type documentFlags struct {
	configPath string
	format     string
}

func (f *documentFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Path to a deployment.yaml holding serialization settings")
	fs.StringVar(&f.format, "format", "", "Input format, json or yaml (default from the file extension)")
}

func (f *documentFlags) serializer() (*serialization.Serializer, error) {
	if f.configPath == "" {
		return newSerializer(config.SerializationConfig{})
	}
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configurations: %w", err)
	}
	return newSerializer(cfg.Serialization)
}

// parseCommand parses the flags of a command that takes exactly one file argument.
func parseCommand(fs *flag.FlagSet, args []string) (string, error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s expects exactly one document file", fs.Name())
	}
	return fs.Arg(0), nil
}

// readDocument reads and parses a document file. "-" reads standard input.
func readDocument(path, format string) (serialization.Document, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		var file *os.File
		file, err = os.Open(filepath.Clean(path))
		if err != nil {
			return nil, err
		}
		defer closeQuietly(file)
		data, err = io.ReadAll(file)
	}
	if err != nil {
		return nil, err
	}

	if format == "" {
		format = formatFromPath(path)
	}
	switch format {
	case formatJSON:
		return serialization.DecodeJSON(data)
	case formatYAML:
		return serialization.DecodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

// runValidate decodes a document and reports the DAG it describes.
func runValidate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	var flags documentFlags
	flags.register(fs)
	path, err := parseCommand(fs, args)
	if err != nil {
		return err
	}

	serializer, err := flags.serializer()
	if err != nil {
		return err
	}
	doc, err := readDocument(path, flags.format)
	if err != nil {
		return err
	}
	dag, err := serializer.FromDocument(doc)
	if err != nil {
		return describeFailure(err)
	}

	_, err = fmt.Fprintf(out, "%s: valid (%d tasks, %d task groups)\n", dag.DagID, len(dag.TaskIDs()),
		len(dag.TaskGroups())-1)
	return err
}

// runRoundtrip decodes a document and prints its canonical JSON text.
func runRoundtrip(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("roundtrip", flag.ContinueOnError)
	var flags documentFlags
	flags.register(fs)
	path, err := parseCommand(fs, args)
	if err != nil {
		return err
	}

	serializer, err := flags.serializer()
	if err != nil {
		return err
	}
	doc, err := readDocument(path, flags.format)
	if err != nil {
		return err
	}
	dag, err := serializer.FromDocument(doc)
	if err != nil {
		return describeFailure(err)
	}
	text, err := serializer.ToText(dag)
	if err != nil {
		return describeFailure(err)
	}
	_, err = fmt.Fprintln(out, text)
	return err
}

// runConvert rewrites a document in the other text form without decoding its DAG.
func runConvert(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	from := fs.String("format", "", "Input format, json or yaml (default from the file extension)")
	to := fs.String("to", "", "Output format, json or yaml (default the other one)")
	path, err := parseCommand(fs, args)
	if err != nil {
		return err
	}

	inputFormat := *from
	if inputFormat == "" {
		inputFormat = formatFromPath(path)
	}
	doc, err := readDocument(path, inputFormat)
	if err != nil {
		return err
	}

	outputFormat := *to
	if outputFormat == "" {
		outputFormat = formatYAML
		if inputFormat == formatYAML {
			outputFormat = formatJSON
		}
	}

	var data []byte
	switch outputFormat {
	case formatJSON:
		data, err = serialization.EncodeJSON(doc)
		if err == nil {
			data = append(data, '\n')
		}
	case formatYAML:
		data, err = serialization.EncodeYAML(doc)
	default:
		err = fmt.Errorf("unsupported output format %q", outputFormat)
	}
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// describeFailure prefixes engine errors with their category.
func describeFailure(err error) error {
	switch {
	case errors.Is(err, serialization.ErrUnsupportedVersion):
		return fmt.Errorf("unsupported version: %w", err)
	case errors.Is(err, serialization.ErrSchema):
		return fmt.Errorf("schema violation: %w", err)
	case errors.Is(err, serialization.ErrResolution):
		return fmt.Errorf("unresolved class: %w", err)
	default:
		return err
	}
}
