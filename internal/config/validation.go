package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/koustreak/timefs/internal/errs"
	"github.com/koustreak/timefs/internal/filestore"
)

var validate = validator.New()

// Validate checks struct tags and the rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	if p := cfg.ObjectStore.Provider; p != "" && p != filestore.ProviderMinIO {
		return errs.Newf(errs.ErrKindInvalidArgument, "object_store.provider: unknown provider %q", p)
	}
	if (cfg.ObjectStore.AccessKey == "") != (cfg.ObjectStore.SecretKey == "") {
		return errs.New(errs.ErrKindInvalidArgument, "object_store: access_key and secret_key must be set together")
	}
	return nil
}

// formatValidationError reports the first failed field.
func formatValidationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		e := verrs[0]
		return errs.Wrap(errs.ErrKindInvalidArgument,
			fmt.Sprintf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value()), err)
	}
	return errs.Wrap(errs.ErrKindInvalidArgument, "invalid configuration", err)
}
