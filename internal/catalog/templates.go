// Package catalog holds the curated set of official runtime templates and
// the one-shot seeder that loads them into the store (§4.8).
package catalog

import "yantra/pkg/models"

// definition is the in-memory shape of one curated template before it is
// turned into a models.Template row with timestamps.
type definition struct {
	id                string
	name              string
	description       string
	category          string
	buildRecipe       string
	defaultRunCommand []string
	tags              []string
	icon              string
}

// curated lists the official templates shipped with yantra. Each one pairs
// a minimal, non-root Dockerfile with the run command that feeds code on
// stdin, mirroring the isolation contract in §6.4 (read-only root, no
// network, a dedicated unprivileged user).
var curated = []definition{
	{
		id:          "python-3.12",
		name:        "Python 3.12",
		description: "Latest Python 3.12 runtime with pip package manager. Ideal for modern Python development and data science.",
		category:    "language",
		buildRecipe: `FROM python:3.12-slim
WORKDIR /sandbox
RUN useradd -m -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["python", "-"]`,
		defaultRunCommand: []string{"python", "-"},
		tags:              []string{"python", "python3", "scripting"},
		icon:              "🐍",
	},
	{
		id:          "python-3.11-data",
		name:        "Python 3.11 Data Science",
		description: "Python 3.11 with numpy, pandas, and matplotlib pre-installed for data science workloads.",
		category:    "language",
		buildRecipe: `FROM python:3.11-slim
WORKDIR /sandbox
RUN apt-get update && apt-get install -y --no-install-recommends \
    gcc g++ && \
    rm -rf /var/lib/apt/lists/*
RUN pip install --no-cache-dir numpy pandas matplotlib scipy
RUN useradd -m -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["python", "-"]`,
		defaultRunCommand: []string{"python", "-"},
		tags:              []string{"python", "data-science", "numpy", "pandas"},
		icon:              "📊",
	},
	{
		id:          "nodejs-20",
		name:        "Node.js 20 LTS",
		description: "Node.js 20 LTS with npm. Perfect for JavaScript server-side applications and scripts.",
		category:    "language",
		buildRecipe: `FROM node:20-slim
WORKDIR /sandbox
RUN useradd -m -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["node", "-"]`,
		defaultRunCommand: []string{"node", "-"},
		tags:              []string{"nodejs", "javascript", "node", "js"},
		icon:              "🟢",
	},
	{
		id:          "nodejs-18",
		name:        "Node.js 18 LTS",
		description: "Node.js 18 LTS with npm. Stable long-term support version for production workloads.",
		category:    "language",
		buildRecipe: `FROM node:18-slim
WORKDIR /sandbox
RUN useradd -m -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["node", "-"]`,
		defaultRunCommand: []string{"node", "-"},
		tags:              []string{"nodejs", "javascript", "node", "js"},
		icon:              "🟢",
	},
	{
		id:          "typescript-5",
		name:        "TypeScript 5",
		description: "TypeScript 5 with ts-node for direct TypeScript execution without pre-compilation.",
		category:    "language",
		buildRecipe: `FROM node:20-slim
WORKDIR /sandbox
RUN npm install -g typescript ts-node
RUN useradd -m -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["ts-node"]`,
		defaultRunCommand: []string{"ts-node"},
		tags:              []string{"typescript", "ts", "node", "javascript"},
		icon:              "🔷",
	},
	{
		id:          "go-1.22",
		name:        "Go 1.22",
		description: "Go 1.22 compiler and runtime. Fast compilation and execution for Go programs.",
		category:    "language",
		buildRecipe: `FROM golang:1.22-alpine
WORKDIR /sandbox
RUN adduser -D -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
ENV CGO_ENABLED=0
CMD ["go", "run", "/dev/stdin"]`,
		defaultRunCommand: []string{"go", "run", "/dev/stdin"},
		tags:              []string{"go", "golang", "compiled"},
		icon:              "🐹",
	},
	{
		id:          "rust-stable",
		name:        "Rust Stable",
		description: "Rust stable toolchain with cargo. Modern systems programming with memory safety.",
		category:    "language",
		buildRecipe: `FROM rust:slim
WORKDIR /sandbox
RUN useradd -m -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["rustc", "-"]`,
		defaultRunCommand: []string{"rustc", "-"},
		tags:              []string{"rust", "systems", "compiled"},
		icon:              "🦀",
	},
	{
		id:          "java-21",
		name:        "Java 21 LTS",
		description: "OpenJDK 21 LTS with modern Java features. Long-term support version for enterprise applications.",
		category:    "language",
		buildRecipe: `FROM eclipse-temurin:21-jdk-alpine
WORKDIR /sandbox
RUN adduser -D -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["jshell"]`,
		defaultRunCommand: []string{"jshell"},
		tags:              []string{"java", "jvm", "jdk"},
		icon:              "☕",
	},
	{
		id:          "java-17",
		name:        "Java 17 LTS",
		description: "OpenJDK 17 LTS. Previous LTS version, widely used in production environments.",
		category:    "language",
		buildRecipe: `FROM eclipse-temurin:17-jdk-alpine
WORKDIR /sandbox
RUN adduser -D -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["jshell"]`,
		defaultRunCommand: []string{"jshell"},
		tags:              []string{"java", "jvm", "jdk"},
		icon:              "☕",
	},
	{
		id:          "dotnet-8",
		name:        ".NET 8",
		description: ".NET 8 SDK with C# support. Modern cross-platform development with Microsoft's latest framework.",
		category:    "language",
		buildRecipe: `FROM mcr.microsoft.com/dotnet/sdk:8.0-alpine
WORKDIR /sandbox
RUN adduser -D -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["dotnet", "script"]`,
		defaultRunCommand: []string{"dotnet", "script"},
		tags:              []string{"csharp", "dotnet", "c#", "microsoft"},
		icon:              "💜",
	},
	{
		id:          "php-8.3",
		name:        "PHP 8.3",
		description: "PHP 8.3 with CLI and Composer. Latest PHP version with modern language features.",
		category:    "language",
		buildRecipe: `FROM php:8.3-cli-alpine
WORKDIR /sandbox
RUN adduser -D -u 1000 sandbox && chown sandbox:sandbox /sandbox
COPY --from=composer:latest /usr/bin/composer /usr/bin/composer
USER sandbox
CMD ["php", "-a"]`,
		defaultRunCommand: []string{"php", "-a"},
		tags:              []string{"php", "web", "scripting"},
		icon:              "🐘",
	},
	{
		id:          "php-8.2",
		name:        "PHP 8.2",
		description: "PHP 8.2 with CLI and Composer. Stable PHP version with excellent performance.",
		category:    "language",
		buildRecipe: `FROM php:8.2-cli-alpine
WORKDIR /sandbox
RUN adduser -D -u 1000 sandbox && chown sandbox:sandbox /sandbox
COPY --from=composer:latest /usr/bin/composer /usr/bin/composer
USER sandbox
CMD ["php", "-a"]`,
		defaultRunCommand: []string{"php", "-a"},
		tags:              []string{"php", "web", "scripting"},
		icon:              "🐘",
	},
	{
		id:          "gcc-latest",
		name:        "GCC C/C++",
		description: "GCC compiler for C and C++ with standard libraries. Supports C11, C++17, and C++20.",
		category:    "language",
		buildRecipe: `FROM gcc:latest
WORKDIR /sandbox
RUN useradd -m -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["gcc", "--version"]`,
		defaultRunCommand: []string{"gcc", "-x", "c", "-o", "/tmp/program", "-", "&&", "/tmp/program"},
		tags:              []string{"c", "cpp", "c++", "gcc", "compiled"},
		icon:              "⚙️",
	},
	{
		id:          "ruby-3.3",
		name:        "Ruby 3.3",
		description: "Ruby 3.3 with gem package manager. Modern Ruby for scripting and web applications.",
		category:    "language",
		buildRecipe: `FROM ruby:3.3-slim
WORKDIR /sandbox
RUN useradd -m -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["ruby"]`,
		defaultRunCommand: []string{"ruby"},
		tags:              []string{"ruby", "scripting", "rails"},
		icon:              "💎",
	},
	{
		id:          "perl-5",
		name:        "Perl 5",
		description: "Perl 5 interpreter with CPAN. Classic scripting language for text processing.",
		category:    "language",
		buildRecipe: `FROM perl:slim
WORKDIR /sandbox
RUN useradd -m -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["perl"]`,
		defaultRunCommand: []string{"perl"},
		tags:              []string{"perl", "scripting"},
		icon:              "🐪",
	},
	{
		id:          "r-4",
		name:        "R 4",
		description: "R language for statistical computing with base packages. Ideal for data analysis and visualization.",
		category:    "language",
		buildRecipe: `FROM r-base:latest
WORKDIR /sandbox
RUN useradd -m -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["R", "--vanilla"]`,
		defaultRunCommand: []string{"R", "--vanilla"},
		tags:              []string{"r", "statistics", "data-science"},
		icon:              "📈",
	},
	{
		id:          "lua-5.4",
		name:        "Lua 5.4",
		description: "Lua 5.4 interpreter. Lightweight scripting language often used in embedded systems and games.",
		category:    "language",
		buildRecipe: `FROM alpine:latest
WORKDIR /sandbox
RUN apk add --no-cache lua5.4
RUN adduser -D -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["lua5.4"]`,
		defaultRunCommand: []string{"lua5.4"},
		tags:              []string{"lua", "scripting", "embedded"},
		icon:              "🌙",
	},
	{
		id:          "swift-5",
		name:        "Swift 5",
		description: "Swift 5 compiler and runtime. Apple's modern programming language for iOS, macOS, and server-side development.",
		category:    "language",
		buildRecipe: `FROM swift:latest
WORKDIR /sandbox
RUN useradd -m -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["swift"]`,
		defaultRunCommand: []string{"swift"},
		tags:              []string{"swift", "apple", "ios"},
		icon:              "🦅",
	},
	{
		id:          "kotlin-jvm",
		name:        "Kotlin JVM",
		description: "Kotlin compiler for JVM. Modern language with Java interoperability and null safety.",
		category:    "language",
		buildRecipe: `FROM eclipse-temurin:21-jdk-alpine
RUN apk add --no-cache wget unzip && \
    wget -q https://github.com/JetBrains/kotlin/releases/download/v1.9.22/kotlin-compiler-1.9.22.zip && \
    unzip -q kotlin-compiler-1.9.22.zip && \
    mv kotlinc /opt/ && \
    rm kotlin-compiler-1.9.22.zip && \
    apk del wget unzip
ENV PATH="/opt/kotlinc/bin:${PATH}"
WORKDIR /sandbox
RUN adduser -D -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["kotlinc"]`,
		defaultRunCommand: []string{"kotlinc"},
		tags:              []string{"kotlin", "jvm", "android"},
		icon:              "🎯",
	},
	{
		id:          "scala-3",
		name:        "Scala 3",
		description: "Scala 3 compiler and runtime. Modern functional and object-oriented programming on the JVM.",
		category:    "language",
		buildRecipe: `FROM hseeberger/scala-sbt:eclipse-temurin-21.0.1_12_1.9.8_3.3.1
WORKDIR /sandbox
RUN useradd -m -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["scala"]`,
		defaultRunCommand: []string{"scala"},
		tags:              []string{"scala", "jvm", "functional"},
		icon:              "🔴",
	},
	{
		id:          "elixir-1.16",
		name:        "Elixir 1.16",
		description: "Elixir 1.16 on Erlang VM. Functional language for scalable and maintainable applications.",
		category:    "language",
		buildRecipe: `FROM elixir:1.16-alpine
WORKDIR /sandbox
RUN adduser -D -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["iex"]`,
		defaultRunCommand: []string{"iex"},
		tags:              []string{"elixir", "erlang", "functional", "beam"},
		icon:              "💧",
	},
	{
		id:          "haskell-9",
		name:        "Haskell 9",
		description: "Haskell 9 with GHC compiler. Pure functional programming with strong type system.",
		category:    "language",
		buildRecipe: `FROM haskell:9-slim
WORKDIR /sandbox
RUN useradd -m -u 1000 sandbox && chown sandbox:sandbox /sandbox
USER sandbox
CMD ["ghci"]`,
		defaultRunCommand: []string{"ghci"},
		tags:              []string{"haskell", "functional", "pure"},
		icon:              "λ",
	},
}

func (d definition) toTemplate() models.Template {
	return models.Template{
		ID:                d.id,
		Name:              d.name,
		Description:       d.description,
		Category:          d.category,
		BuildRecipe:       d.buildRecipe,
		DefaultRunCommand: d.defaultRunCommand,
		Tags:              d.tags,
		Icon:              d.icon,
		Author:            "yantra",
		IsOfficial:        true,
	}
}
