package main

// Specialist blank imports: each import registers a specialist in the
// catalog under its name.

import (
	_ "github.com/Strob0t/Principal/internal/adapter/financial"
	_ "github.com/Strob0t/Principal/internal/adapter/utility"
	_ "github.com/Strob0t/Principal/internal/adapter/vehicle"
)
