package config

import "strings"

func (c *Config) normalize() error {
	c.Firebase.ProjectID = strings.TrimSpace(c.Firebase.ProjectID)
	c.Firebase.Bucket = strings.TrimSpace(c.Firebase.Bucket)

	if c.Firebase.CredentialsFile != "" {
		expanded, err := expandPath(c.Firebase.CredentialsFile)
		if err != nil {
			return err
		}
		c.Firebase.CredentialsFile = expanded
	}

	c.Photos.Prefix = strings.TrimSpace(c.Photos.Prefix)
	if c.Photos.Prefix != "" && !strings.HasSuffix(c.Photos.Prefix, "/") {
		c.Photos.Prefix += "/"
	}
	c.Photos.ProfileSource = strings.ToLower(strings.TrimSpace(c.Photos.ProfileSource))

	for _, field := range []*string{&c.Run.LockDir, &c.Output.ReportDir, &c.Output.BackupDir, &c.Logging.Dir} {
		if *field == "" {
			continue
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
