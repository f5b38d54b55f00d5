package config

import (
	"errors"
	"fmt"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTag     = "config_default"
	descriptionTag = "config_description"
)

var ErrNotStructPointer = errors.New("configuration target must be a pointer to a struct")

var durationType = reflect.TypeOf(time.Duration(0))

// Parse fills appConfig from command line flags, environment variables and tag defaults, in that order.
// Every exported field Name becomes the flag --Name and the variable APPLICATION_NAME_NAME.
func Parse(appConfig any, applicationName string) {
	err := ParseArgs(appConfig, applicationName, os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("config.Parse() failed")
	}
}

func ParseArgs(appConfig any, applicationName string, args []string) error {
	target := reflect.ValueOf(appConfig)
	if target.Kind() != reflect.Pointer || target.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer
	}
	target = target.Elem()

	flags := pflag.NewFlagSet(applicationName, pflag.ContinueOnError)
	values := viper.New()
	prefix := EnvPrefix(applicationName)

	fields := reflect.VisibleFields(target.Type())
	for _, field := range fields {
		if !field.IsExported() || field.Anonymous {
			continue
		}
		if err := defineFlag(flags, field); err != nil {
			return err
		}
		if err := values.BindPFlag(field.Name, flags.Lookup(field.Name)); err != nil {
			return fmt.Errorf("viper.BindPFlag() failed: %w", err)
		}
		if err := values.BindEnv(field.Name, prefix+"_"+strings.ToUpper(field.Name)); err != nil {
			return fmt.Errorf("viper.BindEnv() failed: %w", err)
		}
	}

	if err := flags.Parse(args); err != nil {
		return err
	}

	for _, field := range fields {
		if !field.IsExported() || field.Anonymous {
			continue
		}
		if err := assign(target.FieldByIndex(field.Index), field, values); err != nil {
			return err
		}
	}
	return nil
}

// EnvPrefix turns "chester-cli" into "CHESTER_CLI".
func EnvPrefix(applicationName string) string {
	return strings.ToUpper(strings.ReplaceAll(applicationName, "-", "_"))
}

func defineFlag(flags *pflag.FlagSet, field reflect.StructField) error {
	name := field.Name
	value := field.Tag.Get(defaultTag)
	description := field.Tag.Get(descriptionTag)

	if field.Type == durationType {
		duration := time.Duration(0)
		if value != "" {
			parsed, err := time.ParseDuration(value)
			if err != nil {
				return invalidDefault(field, err)
			}
			duration = parsed
		}
		flags.Duration(name, duration, description)
		return nil
	}

	switch field.Type.Kind() {
	case reflect.String:
		flags.String(name, value, description)
	case reflect.Bool:
		parsed := false
		if value != "" {
			var err error
			if parsed, err = strconv.ParseBool(value); err != nil {
				return invalidDefault(field, err)
			}
		}
		flags.Bool(name, parsed, description)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var parsed int64
		if value != "" {
			var err error
			if parsed, err = strconv.ParseInt(value, 10, 64); err != nil {
				return invalidDefault(field, err)
			}
		}
		flags.Int64(name, parsed, description)
	case reflect.Float32, reflect.Float64:
		var parsed float64
		if value != "" {
			var err error
			if parsed, err = strconv.ParseFloat(value, 64); err != nil {
				return invalidDefault(field, err)
			}
		}
		flags.Float64(name, parsed, description)
	default:
		return fmt.Errorf("field %s has unsupported type %s", name, field.Type)
	}
	return nil
}

func assign(target reflect.Value, field reflect.StructField, values *viper.Viper) error {
	if field.Type == durationType {
		target.SetInt(int64(values.GetDuration(field.Name)))
		return nil
	}

	switch field.Type.Kind() {
	case reflect.String:
		target.SetString(values.GetString(field.Name))
	case reflect.Bool:
		target.SetBool(values.GetBool(field.Name))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value := values.GetInt64(field.Name)
		if target.OverflowInt(value) {
			return fmt.Errorf("value %d overflows field %s", value, field.Name)
		}
		target.SetInt(value)
	case reflect.Float32, reflect.Float64:
		target.SetFloat(values.GetFloat64(field.Name))
	}
	return nil
}

func invalidDefault(field reflect.StructField, err error) error {
	return fmt.Errorf("invalid %s for field %s: %w", defaultTag, field.Name, err)
}
